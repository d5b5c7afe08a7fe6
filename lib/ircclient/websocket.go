package ircclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// IRC over WebSocket subprotocols, in order of preference.
const (
	WebSocketTextProtocol   = "text.ircv3.net"
	WebSocketBinaryProtocol = "binary.ircv3.net"
)

const webSocketHandshakeTimeout = 45 * time.Second

// DialWebSocket connects to the WebSocket endpoint of an IRC server. Each
// WebSocket message carries one line; the returned connection reads and
// writes them as CRLF terminated lines so it can be used like a TCP socket.
func DialWebSocket(ctx context.Context, url string, tlsConfig *tls.Config) (net.Conn, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: webSocketHandshakeTimeout,
		TLSClientConfig:  tlsConfig,
		Subprotocols:     []string{WebSocketTextProtocol, WebSocketBinaryProtocol},
	}

	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return newWebSocketConn(ws), nil
}

// webSocketConn adapts a WebSocket connection to a byte stream of IRC lines.
// One goroutine may read while another writes.
type webSocketConn struct {
	ws          *websocket.Conn
	messageType int

	readBuf []byte

	writeMu  sync.Mutex
	writeBuf []byte
}

func newWebSocketConn(ws *websocket.Conn) *webSocketConn {
	messageType := websocket.TextMessage
	if ws.Subprotocol() == WebSocketBinaryProtocol {
		messageType = websocket.BinaryMessage
	}
	return &webSocketConn{
		ws:          ws,
		messageType: messageType,
	}
}

func (c *webSocketConn) Read(p []byte) (int, error) {
	for len(c.readBuf) == 0 {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}

		data = bytes.TrimRight(data, "\r\n")
		if len(data) == 0 {
			continue
		}
		c.readBuf = append(data, '\r', '\n')
	}

	n := copy(p, c.readBuf)
	c.readBuf = c.readBuf[n:]
	return n, nil
}

// Write sends every complete line in p as its own message. A trailing
// partial line is kept until the rest of it is written.
func (c *webSocketConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.writeBuf = append(c.writeBuf, p...)
	for {
		end := bytes.IndexByte(c.writeBuf, '\n')
		if end < 0 {
			break
		}

		line := bytes.TrimRight(c.writeBuf[:end], "\r")
		c.writeBuf = c.writeBuf[end+1:]
		if len(line) == 0 {
			continue
		}

		if err := c.ws.WriteMessage(c.messageType, line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Close may be called while a read or write is in progress.
func (c *webSocketConn) Close() error {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))

	err := c.ws.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (c *webSocketConn) LocalAddr() net.Addr {
	return c.ws.LocalAddr()
}

func (c *webSocketConn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

func (c *webSocketConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *webSocketConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

func (c *webSocketConn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}
