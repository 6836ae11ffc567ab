package tcp_api

import (
	"database/sql"
	"net"
	"strings"
	"sync"
	"testing"

	"filmvault/exif_sync"
	"filmvault/photo_store"
	"filmvault/roll_import"
	"filmvault/utils"
)

func TestParseIDArg(t *testing.T) {
	cases := []struct {
		args   []string
		entity string
		wantID int64
		wantOK bool
	}{
		{[]string{"roll", "5"}, "roll", 5, true},
		{[]string{"photo", "123"}, "photo", 123, true},
		{[]string{"roll", "5"}, "photo", 0, false},
		{[]string{"roll"}, "roll", 0, false},
		{[]string{"roll", "0"}, "roll", 0, false},
		{[]string{"roll", "-3"}, "roll", 0, false},
		{[]string{"roll", "abc"}, "roll", 0, false},
		{nil, "roll", 0, false},
	}
	for _, c := range cases {
		id, ok := parseIDArg(c.args, c.entity)
		if id != c.wantID || ok != c.wantOK {
			t.Fatalf("parseIDArg(%v, %q) = %d, %v; want %d, %v",
				c.args, c.entity, id, ok, c.wantID, c.wantOK)
		}
	}
}

func TestRollPayloadToNewRoll(t *testing.T) {
	lat, lon := 38.72, -9.14
	roll := rollPayload{
		Name:      "harbour walk",
		FilmStock: "Portra 400",
		Camera:    "Nikon FM2",
		Lens:      "50mm f/1.8",
		ShootDate: "2024-06-15",
		City:      "Lisbon",
		Country:   "Portugal",
		Lat:       &lat,
		Lon:       &lon,
	}.toNewRoll()
	if roll.Name != "harbour walk" || roll.FilmStock != "Portra 400" {
		t.Fatalf("unexpected roll fields: %+v", roll)
	}
	if !roll.Lat.Valid || roll.Lat.Float64 != 38.72 || !roll.Lon.Valid || roll.Lon.Float64 != -9.14 {
		t.Fatalf("coordinates not carried over: %+v", roll)
	}

	bare := rollPayload{Name: "test", ShootDate: "2024-06-15"}.toNewRoll()
	if bare.Lat.Valid || bare.Lon.Valid {
		t.Fatalf("absent coordinates should stay NULL: %+v", bare)
	}
}

func TestLocationPayloadCoords(t *testing.T) {
	lat := 35.68
	payload := locationPayload{City: "Tokyo", Country: "Japan", Lat: &lat}
	gotLat, gotLon := payload.coords()
	if !gotLat.Valid || gotLat.Float64 != 35.68 {
		t.Fatalf("unexpected lat: %+v", gotLat)
	}
	if gotLon.Valid {
		t.Fatalf("absent lon should stay NULL: %+v", gotLon)
	}
}

func TestFormatFavorites(t *testing.T) {
	if got := formatFavorites(3, nil); got != "roll 3 has no favorites" {
		t.Fatalf("unexpected empty listing: %q", got)
	}

	got := formatFavorites(3, []photo_store.Photo{
		{ID: 11, Filename: "ROLL_00000003_001.jpg", Rating: 5},
		{ID: 14, Filename: "ROLL_00000003_004.jpg", Rating: 4},
	})
	for _, want := range []string{
		"roll 3 favorites: 2",
		"11: ROLL_00000003_001.jpg rating=5",
		"14: ROLL_00000003_004.jpg rating=4",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("listing missing %q:\n%s", want, got)
		}
	}
}

func TestFormatImportDoneLine(t *testing.T) {
	line := formatImportDoneLine(roll_import.ImportResult{
		RollID:   7,
		Imported: 36,
		Failed:   1,
		RollPath: "/library/2024/00000007",
	})
	if line != "DONE roll=7 count=36 failed=1 path=/library/2024/00000007" {
		t.Fatalf("unexpected done line: %q", line)
	}
}

func TestFormatExifData(t *testing.T) {
	got := formatExifData(exif_sync.ExifData{
		Make:             "Nikon",
		Model:            "FM2",
		DateTimeOriginal: "2024:06:15 12:00:00",
		ISO:              400,
		Lat:              sql.NullFloat64{Float64: 38.72, Valid: true},
		Lon:              sql.NullFloat64{Float64: -9.14, Valid: true},
		UserComment:      "Shot on Portra 400",
	})
	for _, want := range []string{
		"make: Nikon",
		"model: FM2",
		"date: 2024:06:15 12:00:00",
		"iso: 400",
		"gps: 38.720000,-9.140000",
		"comment: Shot on Portra 400",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("listing missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "lens:") || strings.Contains(got, "rating:") {
		t.Fatalf("empty fields should be omitted:\n%s", got)
	}

	if got := formatExifData(exif_sync.ExifData{}); got != "no tracked exif fields" {
		t.Fatalf("unexpected empty listing: %q", got)
	}
}

func TestWriteResponseIsSerialized(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	safe_conn := utils.NewSafeConnection(server)

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 1024)
		total := 0
		for total < 10 {
			n, err := client.Read(buf[total:])
			if err != nil {
				return
			}
			total += n
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = writeResponse(safe_conn, "x")
		}()
	}
	wg.Wait()
	<-done
}

func TestWriteLineAppendsNewline(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	safe_conn := utils.NewSafeConnection(server)

	errChan := make(chan error, 1)
	go func() {
		errChan <- writeLine(safe_conn, "PROGRESS 1/3 file=scan01.jpg")
	}()

	buf := make([]byte, 64)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); got != "PROGRESS 1/3 file=scan01.jpg\n" {
		t.Fatalf("unexpected wire line: %q", got)
	}
	if err := <-errChan; err != nil {
		t.Fatalf("write line: %v", err)
	}
}
