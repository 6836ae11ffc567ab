// Package tcp_api implements the plain-text command surface: one command
// per line, responses as text, streaming commands emitting PROGRESS lines
// before a final DONE line.
package tcp_api

import (
	"database/sql"
	"time"

	"filmvault/Global"
	"filmvault/utils"
)

const streamFlag = "--stream"

func writeResponse(safe_conn utils.SafeConnection, msg string) error {
	safe_conn.Lock.Lock()
	defer safe_conn.Lock.Unlock()
	_, err := safe_conn.Conn.Write([]byte(msg))
	return err
}

func writeLine(safe_conn utils.SafeConnection, msg string) error {
	return writeResponse(safe_conn, msg+"\n")
}

// acquireDB waits on the readiness gate, reporting the distinct not-ready
// message when the bound passes.
func acquireDB(safe_conn utils.SafeConnection, timeout time.Duration) (*sql.DB, bool) {
	db, err := Global.GlobalDatabase.Acquire(timeout)
	if err != nil {
		_ = writeResponse(safe_conn, "database not ready")
		return nil, false
	}
	return db, true
}
