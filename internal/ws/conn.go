package ws

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gorilla/websocket"
)

// Conn is the transport handle behind one live connection. The relay
// addresses connections only through this interface so tests can stand
// in fakes for real sockets.
type Conn interface {
	// ID is the ephemeral handle identifier, minted at upgrade time.
	ID() string
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// SocketConn wraps a gorilla websocket connection with its handle id.
type SocketConn struct {
	*websocket.Conn
	id string
}

// NewSocketConn mints a handle id for an upgraded connection.
func NewSocketConn(conn *websocket.Conn) *SocketConn {
	return &SocketConn{Conn: conn, id: newConnID()}
}

// ID returns the handle identifier.
func (c *SocketConn) ID() string { return c.id }

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

