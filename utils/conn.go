package utils

import (
	"net"
	"sync"
)

// SafeConnection pairs a TCP connection with the mutex that serializes
// writes to it. Streaming handlers write from multiple goroutines.
type SafeConnection struct {
	Conn net.Conn
	Lock *sync.Mutex
}

func NewSafeConnection(conn net.Conn) SafeConnection {
	return SafeConnection{Conn: conn, Lock: &sync.Mutex{}}
}
