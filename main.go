package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"filmvault/Global"
	"filmvault/init_config"
	"filmvault/photo_store"
)

func initLog() {
	logFile, err := os.OpenFile(Global.GlobalConstantConfig.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Printf("Cannot open log file: %v\n", err)
		return
	}
	Global.GlobalLogFile = logFile
	log.SetOutput(logFile)
	log.Printf("event=start time=%s", time.Now().Format("2006-01-02 15:04:05"))
}

func closeLog() {
	if Global.GlobalLogFile == nil {
		return
	}
	log.Printf("event=stop time=%s", time.Now().Format("2006-01-02 15:04:05"))
	Global.GlobalLogFile.Close()
}

// initDatabase opens the store, ensures the schema and seeds the default
// settings, then flips the readiness gate. Runs in the background so the
// TCP server accepts connections immediately; commands wait on the gate.
func initDatabase() {
	config := Global.GlobalConstantConfig

	db, err := photo_store.OpenDatabase(config.DatabasePath)
	if err != nil {
		log.Printf("event=db_open_failed error=%v", err)
		return
	}
	if err := photo_store.EnsureSchema(db); err != nil {
		log.Printf("event=db_schema_failed error=%v", err)
		db.Close()
		return
	}

	root, err := photo_store.LibraryRoot(db, config.LibraryRoot)
	if err == nil && root == config.LibraryRoot {
		if err := photo_store.SetLibraryRoot(db, root); err != nil {
			log.Printf("event=db_seed_failed error=%v", err)
		}
	}

	Global.GlobalDatabase.Set(db)
	log.Printf("event=db_ready path=%s", config.DatabasePath)
}

func initProgram() {
	Global.GlobalConstantConfig = new(init_config.ConstantConfig)
	*Global.GlobalConstantConfig = init_config.InitConstantConfigFromToml("./config.toml")
	initLog()

	if err := os.MkdirAll(Global.GlobalConstantConfig.LibraryRoot, os.ModePerm); err != nil {
		log.Printf("event=library_root_failed error=%v", err)
	}

	go initDatabase()
}

func closeProgram() {
	if Global.GlobalDatabase.Ready() {
		if db, err := Global.GlobalDatabase.Acquire(time.Second); err == nil {
			db.Close()
		}
	}
	closeLog()
}

func main() {
	initProgram()
	defer closeProgram()

	if err := controlProcessTCP(Global.GlobalConstantConfig.TCPPort); err != nil {
		log.Printf("event=tcp_failed error=%v", err)
	}
}
