package tcp_api

import (
	"strings"

	"filmvault/Global"
	"filmvault/photo_store"
	"filmvault/utils"
)

func Execute_config(safe_conn utils.SafeConnection, recv string) {
	recvList := strings.Fields(recv)
	if len(recvList) < 3 {
		_ = writeResponse(safe_conn, "invalid config command")
		return
	}

	switch {
	case recvList[1] == "get" && recvList[2] == "library_root" && len(recvList) == 3:
		db, ok := acquireDB(safe_conn, Global.DBWaitCommand)
		if !ok {
			return
		}
		root, err := photo_store.LibraryRoot(db, Global.GlobalConstantConfig.LibraryRoot)
		if err != nil {
			_ = writeResponse(safe_conn, "config error: "+err.Error())
			return
		}
		_ = writeResponse(safe_conn, "library_root: "+root)

	case recvList[1] == "set" && recvList[2] == "library_root" && len(recvList) >= 4:
		path := strings.Join(recvList[3:], " ")
		if err := utils.EnsureDirectoryExists(path); err != nil {
			_ = writeResponse(safe_conn, "config error: "+err.Error())
			return
		}
		db, ok := acquireDB(safe_conn, Global.DBWaitCommand)
		if !ok {
			return
		}
		if err := photo_store.SetLibraryRoot(db, path); err != nil {
			_ = writeResponse(safe_conn, "config error: "+err.Error())
			return
		}
		_ = writeResponse(safe_conn, "library_root set: "+path)

	case recvList[1] == "store" && recvList[2] == "errors" && len(recvList) == 3:
		_ = writeResponse(safe_conn, Global.GetStorageErrors())

	default:
		_ = writeResponse(safe_conn, "invalid config command")
	}
}
