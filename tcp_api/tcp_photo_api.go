package tcp_api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"filmvault/Global"
	"filmvault/photo_store"
	"filmvault/utils"
)

// locationPayload is the JSON body of the photo and roll location commands.
type locationPayload struct {
	City    string   `json:"city"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func (p locationPayload) coords() (sql.NullFloat64, sql.NullFloat64) {
	return nullFloat(p.Lat), nullFloat(p.Lon)
}

func Execute_photo(safe_conn utils.SafeConnection, recv string) {
	recvList := strings.Fields(recv)
	if len(recvList) < 2 {
		_ = writeResponse(safe_conn, "invalid photo command")
		return
	}
	switch recvList[1] {
	case "delete":
		executePhotoDelete(safe_conn, recvList[2:])
	case "location":
		executePhotoLocation(safe_conn, recv)
	default:
		_ = writeResponse(safe_conn, "invalid photo command")
	}
}

// executePhotoDelete removes photo records and their files on disk:
// "photo delete <id> [<id> ...]". The paths are collected before the rows
// go so nothing is orphaned by the cascade.
func executePhotoDelete(safe_conn utils.SafeConnection, args []string) {
	if len(args) == 0 {
		_ = writeResponse(safe_conn, "invalid photo delete command")
		return
	}
	photoIDs := make([]int64, 0, len(args))
	for _, arg := range args {
		id, ok := parseID(arg)
		if !ok {
			_ = writeResponse(safe_conn, "invalid photo id: "+arg)
			return
		}
		photoIDs = append(photoIDs, id)
	}

	db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
	if !dbOK {
		return
	}

	var artifacts []string
	for _, id := range photoIDs {
		photo, err := photo_store.GetPhoto(db, id)
		if err != nil {
			continue
		}
		artifacts = append(artifacts, photo.FilePath, photo.ThumbnailPath, photo.PreviewPath)
	}

	deleted, err := photo_store.DeletePhotos(db, photoIDs)
	if err != nil {
		_ = writeResponse(safe_conn, "photo error: "+err.Error())
		return
	}
	for _, path := range artifacts {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			Global.AddStorageError("photo_delete", path, err.Error())
		}
	}
	_ = writeResponse(safe_conn, fmt.Sprintf("%d photos deleted", deleted))
}

// executePhotoLocation sets a per-photo location override:
// "photo location <id> <json>".
func executePhotoLocation(safe_conn utils.SafeConnection, recv string) {
	parts := strings.SplitN(strings.TrimSpace(recv), " ", 4)
	if len(parts) != 4 {
		_ = writeResponse(safe_conn, "invalid photo location command")
		return
	}
	photoID, ok := parseID(parts[2])
	if !ok {
		_ = writeResponse(safe_conn, "invalid photo id")
		return
	}
	var payload locationPayload
	if err := json.Unmarshal([]byte(parts[3]), &payload); err != nil {
		_ = writeResponse(safe_conn, "photo error: invalid payload: "+err.Error())
		return
	}

	db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
	if !dbOK {
		return
	}
	lat, lon := payload.coords()
	if err := photo_store.UpdatePhotoLocation(db, photoID, payload.City, payload.Country, lat, lon); err != nil {
		_ = writeResponse(safe_conn, "photo error: "+err.Error())
		return
	}
	_ = writeResponse(safe_conn, fmt.Sprintf("photo %d location updated", photoID))
}
