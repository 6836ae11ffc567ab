package main

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"

	"filmvault/tcp_api"
	"filmvault/utils"
)

var (
	globalConnList     []*utils.SafeConnection
	globalConnListLock sync.Mutex
)

func executeRecvCommand(safe_conn utils.SafeConnection, recv string) {
	recv = strings.TrimSpace(recv)
	if recv == "" {
		return
	}
	if recv == "hello server" {
		safe_conn.Lock.Lock()
		safe_conn.Conn.Write([]byte("1"))
		safe_conn.Lock.Unlock()
		return
	}

	switch strings.Fields(recv)[0] {
	case "import":
		tcp_api.Execute_import(safe_conn, recv)
	case "exif":
		tcp_api.Execute_exif(safe_conn, recv)
	case "roll":
		tcp_api.Execute_roll(safe_conn, recv)
	case "photo":
		tcp_api.Execute_photo(safe_conn, recv)
	case "config":
		tcp_api.Execute_config(safe_conn, recv)
	default:
		safe_conn.Lock.Lock()
		safe_conn.Conn.Write([]byte("unknown command: " + recv))
		safe_conn.Lock.Unlock()
	}
}

func processTCP(safe_conn *utils.SafeConnection) {
	reader := bufio.NewReader(safe_conn.Conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		recv := strings.TrimSpace(line)
		if recv == "exit" {
			break
		}
		go executeRecvCommand(*safe_conn, recv)
	}

	safe_conn.Lock.Lock()
	safe_conn.Conn.Write([]byte("server close"))
	_ = safe_conn.Conn.Close()
	safe_conn.Lock.Unlock()

	globalConnListLock.Lock()
	for i, v := range globalConnList {
		if v == safe_conn {
			globalConnList = append(globalConnList[:i], globalConnList[i+1:]...)
			break
		}
	}
	globalConnListLock.Unlock()
}

func controlProcessTCP(port int) error {
	listen, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}

	for {
		conn, err := listen.Accept()
		if err != nil {
			fmt.Println("Error accepting connection:", err)
			continue
		}

		safe_conn := utils.NewSafeConnection(conn)
		globalConnListLock.Lock()
		globalConnList = append(globalConnList, &safe_conn)
		globalConnListLock.Unlock()
		go processTCP(&safe_conn)
	}
}
