package tcp_api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"filmvault/Global"
	"filmvault/exif_sync"
	"filmvault/photo_store"
	"filmvault/roll_import"
	"filmvault/utils"
)

// importPayload is the JSON body of the import command: the roll fields
// plus the import switches.
type importPayload struct {
	rollPayload
	SourceDir     string `json:"source_dir"`
	Move          bool   `json:"move"`
	AutoWriteEXIF bool   `json:"auto_write_exif"`
}

type importOutcome struct {
	result roll_import.ImportResult
	err    error
}

func Execute_import(safe_conn utils.SafeConnection, recv string) {
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(recv), "import"))
	if rest == "" {
		_ = writeResponse(safe_conn, "invalid import command")
		return
	}

	streamProgress := false
	if strings.HasSuffix(rest, streamFlag) {
		streamProgress = true
		rest = strings.TrimSpace(strings.TrimSuffix(rest, streamFlag))
	}

	var payload importPayload
	if err := json.Unmarshal([]byte(rest), &payload); err != nil {
		_ = writeResponse(safe_conn, "import error: invalid payload: "+err.Error())
		return
	}

	db, ok := acquireDB(safe_conn, Global.DBWaitImport)
	if !ok {
		return
	}

	config, err := buildImportConfig(db, payload)
	if err != nil {
		_ = writeResponse(safe_conn, "import error: "+err.Error())
		return
	}

	if streamProgress {
		streamImport(safe_conn, config)
		return
	}

	result, err := roll_import.ImportRoll(config)
	if err != nil {
		_ = writeResponse(safe_conn, "import error: "+err.Error())
		return
	}
	_ = writeResponse(safe_conn, formatImportDoneLine(result))
}

func buildImportConfig(db *sql.DB, payload importPayload) (roll_import.ImportConfig, error) {
	root, err := photo_store.LibraryRoot(db, Global.GlobalConstantConfig.LibraryRoot)
	if err != nil {
		return roll_import.ImportConfig{}, err
	}

	config := roll_import.ImportConfig{
		DB:          db,
		SourceDir:   payload.SourceDir,
		LibraryRoot: root,
		Roll:        payload.toNewRoll(),
		Move:        payload.Move,
		Logger:      log.Default(),
	}

	if payload.AutoWriteEXIF {
		tool := exif_sync.NewTool(Global.GlobalConstantConfig.ExiftoolBin)
		if err := tool.Available(); err != nil {
			log.Printf("import status=exif_unavailable error=%v", err)
		} else {
			config.Exif = tool
		}
	}
	return config, nil
}

func streamImport(safe_conn utils.SafeConnection, config roll_import.ImportConfig) {
	progressChan := make(chan roll_import.ImportProgress, 64)
	resultChan := make(chan importOutcome, 1)
	config.ProgressChan = progressChan

	go func() {
		result, err := roll_import.ImportRoll(config)
		close(progressChan)
		resultChan <- importOutcome{result: result, err: err}
	}()

	progressOpen := true
	var finalOutcome *importOutcome
	for progressOpen || finalOutcome == nil {
		select {
		case update, ok := <-progressChan:
			if !ok {
				progressOpen = false
				continue
			}
			if update.CurrentFile == "" {
				continue
			}
			line := fmt.Sprintf("PROGRESS %d/%d file=%s roll=%d", update.Current, update.Total, update.CurrentFile, update.RollID)
			if err := writeLine(safe_conn, line); err != nil {
				return
			}
		case outcome := <-resultChan:
			finalOutcome = &outcome
		}
	}

	if finalOutcome.err != nil {
		_ = writeLine(safe_conn, "import error: "+finalOutcome.err.Error())
		return
	}
	_ = writeLine(safe_conn, formatImportDoneLine(finalOutcome.result))
}

func formatImportDoneLine(result roll_import.ImportResult) string {
	return fmt.Sprintf(
		"DONE roll=%d count=%d failed=%d path=%s",
		result.RollID,
		result.Imported,
		result.Failed,
		result.RollPath,
	)
}
