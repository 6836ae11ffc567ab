package tcp_api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"filmvault/Global"
	"filmvault/photo_store"
	"filmvault/utils"
)

// rollPayload is the JSON body shared by the import and roll update
// commands. Lat and Lon are pointers so an absent coordinate stays NULL.
type rollPayload struct {
	Name      string   `json:"name"`
	FilmStock string   `json:"film_stock"`
	Camera    string   `json:"camera"`
	Lens      string   `json:"lens"`
	ShootDate string   `json:"shoot_date"`
	LabInfo   string   `json:"lab_info"`
	Notes     string   `json:"notes"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
}

func (p rollPayload) toNewRoll() photo_store.NewRoll {
	return photo_store.NewRoll{
		Name:      p.Name,
		FilmStock: p.FilmStock,
		Camera:    p.Camera,
		Lens:      p.Lens,
		ShootDate: p.ShootDate,
		LabInfo:   p.LabInfo,
		Notes:     p.Notes,
		City:      p.City,
		Country:   p.Country,
		Lat:       nullFloat(p.Lat),
		Lon:       nullFloat(p.Lon),
	}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func Execute_roll(safe_conn utils.SafeConnection, recv string) {
	recvList := strings.Fields(recv)
	if len(recvList) < 2 {
		_ = writeResponse(safe_conn, "invalid roll command")
		return
	}
	switch recvList[1] {
	case "list":
		executeRollList(safe_conn)
	case "show":
		executeRollShow(safe_conn, recvList[2:])
	case "update":
		executeRollUpdate(safe_conn, recv)
	case "delete":
		executeRollDelete(safe_conn, recvList[2:])
	case "cover":
		executeRollCover(safe_conn, recvList[2:])
	case "rating":
		executeRollRating(safe_conn, recvList[2:])
	case "favorite":
		executeRollFavorite(safe_conn, recvList[2:])
	case "favorites":
		executeRollFavorites(safe_conn, recvList[2:])
	case "location":
		executeRollLocation(safe_conn, recv)
	default:
		_ = writeResponse(safe_conn, "invalid roll command")
	}
}

func parseID(arg string) (int64, bool) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func executeRollList(safe_conn utils.SafeConnection) {
	db, ok := acquireDB(safe_conn, Global.DBWaitCommand)
	if !ok {
		return
	}
	rolls, err := photo_store.ListRolls(db)
	if err != nil {
		_ = writeResponse(safe_conn, "roll error: "+err.Error())
		return
	}
	if len(rolls) == 0 {
		_ = writeResponse(safe_conn, "no rolls")
		return
	}

	var builder strings.Builder
	for _, roll := range rolls {
		builder.WriteString(fmt.Sprintf("\nroll %d: %s date=%s film=%s path=%s",
			roll.ID, roll.Name, roll.ShootDate, roll.FilmStock, roll.Path))
	}
	_ = writeResponse(safe_conn, builder.String())
}

func executeRollShow(safe_conn utils.SafeConnection, args []string) {
	if len(args) != 1 {
		_ = writeResponse(safe_conn, "invalid roll show command")
		return
	}
	rollID, ok := parseID(args[0])
	if !ok {
		_ = writeResponse(safe_conn, "invalid roll id")
		return
	}
	db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
	if !dbOK {
		return
	}

	roll, err := photo_store.GetRoll(db, rollID)
	if err != nil {
		_ = writeResponse(safe_conn, "roll error: "+err.Error())
		return
	}
	photos, err := photo_store.PhotosByRoll(db, rollID)
	if err != nil {
		_ = writeResponse(safe_conn, "roll error: "+err.Error())
		return
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("roll %d: %s", roll.ID, roll.Name))
	builder.WriteString(fmt.Sprintf("\ndate: %s film: %s camera: %s lens: %s",
		roll.ShootDate, roll.FilmStock, roll.Camera, roll.Lens))
	if roll.City != "" && roll.Country != "" {
		builder.WriteString(fmt.Sprintf("\nlocation: %s, %s", roll.City, roll.Country))
	}
	builder.WriteString(fmt.Sprintf("\npath: %s", roll.Path))
	builder.WriteString(fmt.Sprintf("\nphotos: %d", len(photos)))
	for _, photo := range photos {
		markers := ""
		if photo.IsCover {
			markers += " cover"
		}
		if photo.IsFavorite {
			markers += " favorite"
		}
		if photo.ExifSynced {
			markers += " synced"
		}
		builder.WriteString(fmt.Sprintf("\n  %d: %s rating=%d%s",
			photo.ID, photo.Filename, photo.Rating, markers))
	}
	_ = writeResponse(safe_conn, builder.String())
}

// executeRollUpdate rewrites the roll's descriptive fields from a JSON
// payload: "roll update <id> <json>". The payload is validated before any
// write happens.
func executeRollUpdate(safe_conn utils.SafeConnection, recv string) {
	parts := strings.SplitN(strings.TrimSpace(recv), " ", 4)
	if len(parts) != 4 {
		_ = writeResponse(safe_conn, "invalid roll update command")
		return
	}
	rollID, ok := parseID(parts[2])
	if !ok {
		_ = writeResponse(safe_conn, "invalid roll id")
		return
	}

	var payload rollPayload
	if err := json.Unmarshal([]byte(parts[3]), &payload); err != nil {
		_ = writeResponse(safe_conn, "roll error: invalid payload: "+err.Error())
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		_ = writeResponse(safe_conn, "roll error: name is required")
		return
	}
	shootDate, err := utils.ParseShootDate(payload.ShootDate)
	if err != nil {
		_ = writeResponse(safe_conn, "roll error: "+err.Error())
		return
	}
	payload.ShootDate = shootDate

	db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
	if !dbOK {
		return
	}
	if err := photo_store.UpdateRoll(db, rollID, payload.toNewRoll()); err != nil {
		_ = writeResponse(safe_conn, "roll error: "+err.Error())
		return
	}
	_ = writeResponse(safe_conn, fmt.Sprintf("roll %d updated", rollID))
}

// executeRollLocation sets the roll's location ("roll location <id> <json>")
// or pushes it down onto photos without an override of their own
// ("roll location apply <id>").
func executeRollLocation(safe_conn utils.SafeConnection, recv string) {
	parts := strings.SplitN(strings.TrimSpace(recv), " ", 4)
	if len(parts) != 4 {
		_ = writeResponse(safe_conn, "invalid roll location command")
		return
	}

	if parts[2] == "apply" {
		rollID, ok := parseID(strings.TrimSpace(parts[3]))
		if !ok {
			_ = writeResponse(safe_conn, "invalid roll id")
			return
		}
		db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
		if !dbOK {
			return
		}
		applied, err := photo_store.ApplyRollLocationToPhotos(db, rollID)
		if err != nil {
			_ = writeResponse(safe_conn, "roll error: "+err.Error())
			return
		}
		_ = writeResponse(safe_conn, fmt.Sprintf("roll %d location applied to %d photos", rollID, applied))
		return
	}

	rollID, ok := parseID(parts[2])
	if !ok {
		_ = writeResponse(safe_conn, "invalid roll id")
		return
	}
	var payload locationPayload
	if err := json.Unmarshal([]byte(parts[3]), &payload); err != nil {
		_ = writeResponse(safe_conn, "roll error: invalid payload: "+err.Error())
		return
	}
	db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
	if !dbOK {
		return
	}
	lat, lon := payload.coords()
	if err := photo_store.UpdateRollLocation(db, rollID, payload.City, payload.Country, lat, lon); err != nil {
		_ = writeResponse(safe_conn, "roll error: "+err.Error())
		return
	}
	_ = writeResponse(safe_conn, fmt.Sprintf("roll %d location updated", rollID))
}

func executeRollFavorites(safe_conn utils.SafeConnection, args []string) {
	if len(args) != 1 {
		_ = writeResponse(safe_conn, "invalid roll favorites command")
		return
	}
	rollID, ok := parseID(args[0])
	if !ok {
		_ = writeResponse(safe_conn, "invalid roll id")
		return
	}
	db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
	if !dbOK {
		return
	}
	photos, err := photo_store.FavoritesByRoll(db, rollID)
	if err != nil {
		_ = writeResponse(safe_conn, "roll error: "+err.Error())
		return
	}
	_ = writeResponse(safe_conn, formatFavorites(rollID, photos))
}

func formatFavorites(rollID int64, photos []photo_store.Photo) string {
	if len(photos) == 0 {
		return fmt.Sprintf("roll %d has no favorites", rollID)
	}
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("roll %d favorites: %d", rollID, len(photos)))
	for _, photo := range photos {
		builder.WriteString(fmt.Sprintf("\n  %d: %s rating=%d", photo.ID, photo.Filename, photo.Rating))
	}
	return builder.String()
}

// executeRollDelete removes the record and the roll directory. The cascade
// handles the photo rows.
func executeRollDelete(safe_conn utils.SafeConnection, args []string) {
	if len(args) != 1 {
		_ = writeResponse(safe_conn, "invalid roll delete command")
		return
	}
	rollID, ok := parseID(args[0])
	if !ok {
		_ = writeResponse(safe_conn, "invalid roll id")
		return
	}
	db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
	if !dbOK {
		return
	}

	roll, err := photo_store.GetRoll(db, rollID)
	if err != nil {
		_ = writeResponse(safe_conn, "roll error: "+err.Error())
		return
	}
	if err := photo_store.DeleteRoll(db, rollID); err != nil {
		_ = writeResponse(safe_conn, "roll error: "+err.Error())
		return
	}
	if roll.Path != "" {
		if err := os.RemoveAll(roll.Path); err != nil {
			Global.AddStorageError("roll_delete", roll.Path, err.Error())
			_ = writeResponse(safe_conn, fmt.Sprintf("roll %d deleted, directory removal failed: %v", rollID, err))
			return
		}
	}
	_ = writeResponse(safe_conn, fmt.Sprintf("roll %d deleted", rollID))
}

func executeRollCover(safe_conn utils.SafeConnection, args []string) {
	if len(args) != 2 {
		_ = writeResponse(safe_conn, "invalid roll cover command")
		return
	}
	rollID, rollOK := parseID(args[0])
	photoID, photoOK := parseID(args[1])
	if !rollOK || !photoOK {
		_ = writeResponse(safe_conn, "invalid roll cover command")
		return
	}
	db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
	if !dbOK {
		return
	}
	if err := photo_store.SetCover(db, rollID, photoID); err != nil {
		_ = writeResponse(safe_conn, "roll error: "+err.Error())
		return
	}
	_ = writeResponse(safe_conn, fmt.Sprintf("roll %d cover set to photo %d", rollID, photoID))
}

func executeRollRating(safe_conn utils.SafeConnection, args []string) {
	if len(args) != 2 {
		_ = writeResponse(safe_conn, "invalid roll rating command")
		return
	}
	photoID, ok := parseID(args[0])
	if !ok {
		_ = writeResponse(safe_conn, "invalid photo id")
		return
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil || rating < 0 || rating > 5 {
		_ = writeResponse(safe_conn, "invalid rating, use 0-5")
		return
	}
	db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
	if !dbOK {
		return
	}
	if err := photo_store.UpdateRating(db, photoID, rating); err != nil {
		_ = writeResponse(safe_conn, "roll error: "+err.Error())
		return
	}
	_ = writeResponse(safe_conn, fmt.Sprintf("photo %d rated %d", photoID, rating))
}

func executeRollFavorite(safe_conn utils.SafeConnection, args []string) {
	if len(args) != 2 {
		_ = writeResponse(safe_conn, "invalid roll favorite command")
		return
	}
	photoID, ok := parseID(args[0])
	if !ok {
		_ = writeResponse(safe_conn, "invalid photo id")
		return
	}
	db, dbOK := acquireDB(safe_conn, Global.DBWaitCommand)
	if !dbOK {
		return
	}

	switch args[1] {
	case "toggle":
		favorite, err := photo_store.ToggleFavorite(db, photoID)
		if err != nil {
			_ = writeResponse(safe_conn, "roll error: "+err.Error())
			return
		}
		_ = writeResponse(safe_conn, fmt.Sprintf("photo %d favorite: %t", photoID, favorite))
	case "0", "1":
		favorite := args[1] == "1"
		if err := photo_store.SetFavorite(db, photoID, favorite); err != nil {
			_ = writeResponse(safe_conn, "roll error: "+err.Error())
			return
		}
		_ = writeResponse(safe_conn, fmt.Sprintf("photo %d favorite: %t", photoID, favorite))
	default:
		_ = writeResponse(safe_conn, "invalid roll favorite command")
	}
}
