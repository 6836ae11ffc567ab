package tcp_api

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"

	"filmvault/Global"
	"filmvault/exif_sync"
	"filmvault/photo_store"
	"filmvault/utils"
)

type syncOutcome struct {
	result exif_sync.BatchResult
	err    error
}

func Execute_exif(safe_conn utils.SafeConnection, recv string) {
	recvList := strings.Fields(recv)
	if len(recvList) < 2 {
		_ = writeResponse(safe_conn, "invalid exif command")
		return
	}
	switch recvList[1] {
	case "check":
		executeExifCheck(safe_conn)
	case "write":
		executeExifWrite(safe_conn, recvList[2:])
	case "clear":
		executeExifClear(safe_conn, recvList[2:])
	case "read":
		executeExifRead(safe_conn, recvList[2:])
	default:
		_ = writeResponse(safe_conn, "invalid exif command")
	}
}

func newTool() *exif_sync.Tool {
	return exif_sync.NewTool(Global.GlobalConstantConfig.ExiftoolBin)
}

func executeExifCheck(safe_conn utils.SafeConnection) {
	if err := newTool().Available(); err != nil {
		_ = writeResponse(safe_conn, "exiftool: unavailable: "+err.Error())
		return
	}
	_ = writeResponse(safe_conn, "exiftool: available")
}

func parseIDArg(args []string, entity string) (int64, bool) {
	if len(args) < 2 || args[0] != entity {
		return 0, false
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func executeExifWrite(safe_conn utils.SafeConnection, args []string) {
	if rollID, ok := parseIDArg(args, "roll"); ok {
		streamProgress := len(args) == 3 && args[2] == streamFlag
		db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
		if !dbOK {
			return
		}
		if streamProgress {
			streamExifWrite(safe_conn, db, rollID)
			return
		}
		result, err := exif_sync.SyncRoll(db, newTool(), rollID, exif_sync.SyncOptions{Logger: log.Default()})
		if err != nil {
			_ = writeResponse(safe_conn, "exif error: "+err.Error())
			return
		}
		_ = writeResponse(safe_conn, "exif write: "+result.Summary())
		return
	}

	if photoID, ok := parseIDArg(args, "photo"); ok {
		db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
		if !dbOK {
			return
		}
		if err := exif_sync.SyncPhoto(db, newTool(), photoID, ""); err != nil {
			_ = writeResponse(safe_conn, "exif error: "+err.Error())
			return
		}
		_ = writeResponse(safe_conn, fmt.Sprintf("exif write: photo %d synced", photoID))
		return
	}

	_ = writeResponse(safe_conn, "invalid exif write command")
}

func streamExifWrite(safe_conn utils.SafeConnection, db *sql.DB, rollID int64) {
	progressChan := make(chan exif_sync.SyncProgress, 64)
	resultChan := make(chan syncOutcome, 1)

	go func() {
		result, err := exif_sync.SyncRoll(db, newTool(), rollID, exif_sync.SyncOptions{
			Progress: progressChan,
			Logger:   log.Default(),
		})
		close(progressChan)
		resultChan <- syncOutcome{result: result, err: err}
	}()

	progressOpen := true
	var finalOutcome *syncOutcome
	for progressOpen || finalOutcome == nil {
		select {
		case update, ok := <-progressChan:
			if !ok {
				progressOpen = false
				continue
			}
			line := fmt.Sprintf("PROGRESS %d/%d failed=%d window=%d",
				update.Completed+update.Failed, update.Total, update.Failed, update.WindowEvents)
			if err := writeLine(safe_conn, line); err != nil {
				return
			}
		case outcome := <-resultChan:
			finalOutcome = &outcome
		}
	}

	if finalOutcome.err != nil {
		_ = writeLine(safe_conn, "exif error: "+finalOutcome.err.Error())
		return
	}
	_ = writeLine(safe_conn, "DONE "+finalOutcome.result.Summary())
}

func executeExifClear(safe_conn utils.SafeConnection, args []string) {
	if rollID, ok := parseIDArg(args, "roll"); ok {
		db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
		if !dbOK {
			return
		}
		result, err := exif_sync.ClearRoll(db, newTool(), rollID, exif_sync.SyncOptions{Logger: log.Default()})
		if err != nil {
			_ = writeResponse(safe_conn, "exif error: "+err.Error())
			return
		}
		_ = writeResponse(safe_conn, "exif clear: "+result.Summary())
		return
	}

	if photoID, ok := parseIDArg(args, "photo"); ok {
		db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
		if !dbOK {
			return
		}
		if err := exif_sync.ClearPhoto(db, newTool(), photoID); err != nil {
			_ = writeResponse(safe_conn, "exif error: "+err.Error())
			return
		}
		_ = writeResponse(safe_conn, fmt.Sprintf("exif clear: photo %d cleared", photoID))
		return
	}

	_ = writeResponse(safe_conn, "invalid exif clear command")
}

func executeExifRead(safe_conn utils.SafeConnection, args []string) {
	photoID, ok := parseIDArg(args, "photo")
	if !ok {
		_ = writeResponse(safe_conn, "invalid exif read command")
		return
	}
	db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
	if !dbOK {
		return
	}
	photo, err := photo_store.GetPhoto(db, photoID)
	if err != nil {
		_ = writeResponse(safe_conn, "exif error: "+err.Error())
		return
	}
	data, err := newTool().Read(photo.FilePath)
	if err != nil {
		_ = writeResponse(safe_conn, "exif error: "+err.Error())
		return
	}
	_ = writeResponse(safe_conn, formatExifData(data))
}

func formatExifData(data exif_sync.ExifData) string {
	var builder strings.Builder
	writeField := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		builder.WriteString("\n")
		builder.WriteString(name)
		builder.WriteString(": ")
		builder.WriteString(value)
	}
	writeField("make", data.Make)
	writeField("model", data.Model)
	writeField("lens", data.LensModel)
	writeField("date", data.DateTimeOriginal)
	writeField("film", data.FilmStock)
	if data.ISO > 0 {
		writeField("iso", strconv.Itoa(data.ISO))
	}
	writeField("aperture", data.Aperture)
	writeField("shutter", data.ShutterSpeed)
	writeField("focal_length", data.FocalLength)
	if data.Lat.Valid && data.Lon.Valid {
		writeField("gps", fmt.Sprintf("%f,%f", data.Lat.Float64, data.Lon.Float64))
	}
	if data.Rating > 0 {
		writeField("rating", strconv.Itoa(data.Rating))
	}
	writeField("comment", data.UserComment)
	writeField("description", data.Description)
	if builder.Len() == 0 {
		return "no tracked exif fields"
	}
	return builder.String()
}
