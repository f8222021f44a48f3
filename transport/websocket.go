// Package transport adapts message-oriented connections into the
// contiguous byte streams the record layer reads and writes.
package transport

import (
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultHandshakeTimeout bounds the websocket upgrade.
const DefaultHandshakeTimeout = 10 * time.Second

// WSStream exposes a websocket connection as an io.ReadWriteCloser.
// Each Write sends one binary message; Read drains incoming binary
// messages, carrying leftover bytes across calls so a caller may
// consume a message in arbitrarily small pieces.
//
// Reads and writes may proceed concurrently, but at most one goroutine
// may read and one may write, matching the record layer's one goroutine
// per direction model.
type WSStream struct {
	conn     *websocket.Conn
	leftover []byte
}

// NewWSStream wraps an established websocket connection.
func NewWSStream(conn *websocket.Conn) *WSStream {
	return &WSStream{conn: conn}
}

// Dial connects to a websocket URL and wraps the connection.
func Dial(url string, timeout time.Duration) (*WSStream, error) {
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	dialer := &websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	return NewWSStream(conn), nil
}

func (s *WSStream) Read(p []byte) (int, error) {
	for len(s.leftover) == 0 {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			// A normal close is a clean end of stream to the record layer.
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		s.leftover = data
	}
	n := copy(p, s.leftover)
	s.leftover = s.leftover[n:]
	return n, nil
}

func (s *WSStream) Write(p []byte) (int, error) {
	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame on a best-effort basis and tears down the
// underlying connection. Outstanding blocking reads fail once the
// connection is closed.
func (s *WSStream) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}
