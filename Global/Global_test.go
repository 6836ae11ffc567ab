package Global

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func resetStorageErrors() {
	storageErrorsMutex.Lock()
	storageErrors = nil
	storageErrorsMutex.Unlock()
}

func TestDBHandleAcquireTimesOutWhilePending(t *testing.T) {
	h := NewDBHandle()
	if h.Ready() {
		t.Fatalf("new handle should not be ready")
	}

	start := time.Now()
	_, err := h.Acquire(50 * time.Millisecond)
	if err != ErrDatabaseNotReady {
		t.Fatalf("expected ErrDatabaseNotReady, got %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Fatalf("acquire returned before the wait bound")
	}
}

func TestDBHandleSetReleasesWaiters(t *testing.T) {
	h := NewDBHandle()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer db.Close()

	acquired := make(chan *sql.DB, 1)
	go func() {
		got, err := h.Acquire(5 * time.Second)
		if err != nil {
			acquired <- nil
			return
		}
		acquired <- got
	}()

	time.Sleep(20 * time.Millisecond)
	h.Set(db)

	select {
	case got := <-acquired:
		if got != db {
			t.Fatalf("waiter received wrong handle")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("waiter never released")
	}

	if !h.Ready() {
		t.Fatalf("handle should report ready after Set")
	}

	// Acquire after readiness never blocks.
	got, err := h.Acquire(0)
	if err != nil {
		t.Fatalf("acquire after set: %v", err)
	}
	if got != db {
		t.Fatalf("acquire returned wrong handle")
	}
}

func TestStorageErrorsEvictOldest(t *testing.T) {
	resetStorageErrors()
	defer resetStorageErrors()

	for i := 0; i < MaxStorageErrors+5; i++ {
		AddStorageError("delete", fmt.Sprintf("/path/%d", i), "disk full")
	}

	storageErrorsMutex.Lock()
	count := len(storageErrors)
	oldest := storageErrors[0].FilePath
	newest := storageErrors[count-1].FilePath
	storageErrorsMutex.Unlock()

	if count != MaxStorageErrors {
		t.Fatalf("expected buffer capped at %d, got %d", MaxStorageErrors, count)
	}
	if oldest != "/path/5" {
		t.Fatalf("expected oldest entries evicted, head is %s", oldest)
	}
	if newest != fmt.Sprintf("/path/%d", MaxStorageErrors+4) {
		t.Fatalf("unexpected newest entry %s", newest)
	}
}

func TestGetStorageErrorsFormatting(t *testing.T) {
	resetStorageErrors()
	defer resetStorageErrors()

	if got := GetStorageErrors(); got != "No storage errors recorded" {
		t.Fatalf("unexpected empty listing: %q", got)
	}

	AddStorageError("roll_delete", "/library/2024/00000001", "directory not empty")
	got := GetStorageErrors()
	if !strings.Contains(got, "roll_delete") || !strings.Contains(got, "/library/2024/00000001") {
		t.Fatalf("listing missing fields: %q", got)
	}
	if !strings.HasPrefix(got, "Recent Storage Errors:") {
		t.Fatalf("unexpected listing header: %q", got)
	}
}
