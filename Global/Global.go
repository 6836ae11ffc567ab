// Package Global carries the process-wide shared state: the lazily
// initialized database handle, the loaded configuration, and the recent
// storage-error buffer surfaced over the management API.
package Global

import (
	"database/sql"
	"errors"
	"os"
	"sync"
	"time"

	"filmvault/init_config"
)

// ErrDatabaseNotReady is returned when the database handle is still pending
// after the caller's wait bound. Callers may retry later.
var ErrDatabaseNotReady = errors.New("database not initialized")

const (
	// Wait bounds for acquiring the database handle. Import is allowed to
	// wait longer because it is always an explicit, long-running user
	// action.
	DBWaitImport  = 30 * time.Second
	DBWaitCommand = 10 * time.Second
)

// DBHandle is a readiness gate around the shared *sql.DB. It starts pending
// and becomes ready exactly once; acquirers block on a one-shot signal
// instead of polling.
type DBHandle struct {
	mu    sync.Mutex
	db    *sql.DB
	ready chan struct{}
}

func NewDBHandle() *DBHandle {
	return &DBHandle{ready: make(chan struct{})}
}

// Set installs the database and releases all waiters. Calling Set twice is a
// programming error and panics on the closed channel.
func (h *DBHandle) Set(db *sql.DB) {
	h.mu.Lock()
	h.db = db
	h.mu.Unlock()
	close(h.ready)
}

// Acquire returns the database, waiting up to timeout for initialization to
// finish. After the bound it fails with ErrDatabaseNotReady rather than
// blocking indefinitely.
func (h *DBHandle) Acquire(timeout time.Duration) (*sql.DB, error) {
	select {
	case <-h.ready:
	default:
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-h.ready:
		case <-timer.C:
			return nil, ErrDatabaseNotReady
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.db, nil
}

// Ready reports whether Set has been called, without blocking.
func (h *DBHandle) Ready() bool {
	select {
	case <-h.ready:
		return true
	default:
		return false
	}
}

var GlobalDatabase = NewDBHandle()

var GlobalConstantConfig *init_config.ConstantConfig

var GlobalLogFile *os.File

type StorageError struct {
	Timestamp    time.Time
	Operation    string
	FilePath     string
	ErrorMessage string
}

const MaxStorageErrors = 20

var (
	storageErrors      []StorageError
	storageErrorsMutex sync.Mutex
)

// AddStorageError appends an error to the ring buffer with FIFO eviction.
func AddStorageError(operation, filePath, errorMessage string) {
	storageErrorsMutex.Lock()
	defer storageErrorsMutex.Unlock()

	if len(storageErrors) >= MaxStorageErrors {
		storageErrors = storageErrors[1:]
	}
	storageErrors = append(storageErrors, StorageError{
		Timestamp:    time.Now(),
		Operation:    operation,
		FilePath:     filePath,
		ErrorMessage: errorMessage,
	})
}

// GetStorageErrors returns a formatted listing of recent errors for display.
func GetStorageErrors() string {
	storageErrorsMutex.Lock()
	defer storageErrorsMutex.Unlock()

	if len(storageErrors) == 0 {
		return "No storage errors recorded"
	}

	result := "Recent Storage Errors:"
	for _, err := range storageErrors {
		result += "\n[" + err.Timestamp.Format("2006-01-02 15:04:05") +
			"] Op: " + err.Operation +
			" | Path: " + err.FilePath +
			" | Error: " + err.ErrorMessage
	}
	return result
}
