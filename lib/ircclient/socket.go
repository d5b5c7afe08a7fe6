// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const (
	// DefaultMaxLineLength bounds a single received line. It fits 8191 bytes
	// of tags plus a 512 byte message.
	DefaultMaxLineLength = 16 * 1024
	sendQueueLength      = 256
)

// Socket is an established connection to an IRC server. It frames received
// bytes into lines and writes queued lines from its own goroutine, paced by
// a rate limiter.
type Socket struct {
	Host string

	conn      net.Conn
	sendLines chan string
	limiter   *rate.Limiter
	maxLine   int

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	log *slog.Logger
}

// Dial opens a plain or TLS connection to host:port.
func Dial(ctx context.Context, host string, port int, useTLS bool, tlsConfig *tls.Config) (net.Conn, error) {
	destination := net.JoinHostPort(host, strconv.Itoa(port))

	if useTLS {
		config := &tls.Config{}
		if tlsConfig != nil {
			config = tlsConfig.Clone()
		}
		if config.ServerName == "" {
			config.ServerName = host
		}
		dialer := &tls.Dialer{Config: config}
		return dialer.DialContext(ctx, "tcp", destination)
	}

	var dialer net.Dialer
	return dialer.DialContext(ctx, "tcp", destination)
}

// NewSocket wraps conn. limiter may be nil for unthrottled writes, and
// maxLine <= 0 selects DefaultMaxLineLength.
func NewSocket(conn net.Conn, host string, limiter *rate.Limiter, maxLine int, logger *slog.Logger) *Socket {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if maxLine <= 0 {
		maxLine = DefaultMaxLineLength
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Socket{
		Host:      host,
		conn:      conn,
		sendLines: make(chan string, sendQueueLength),
		limiter:   limiter,
		maxLine:   maxLine,
		ctx:       ctx,
		cancel:    cancel,
		log:       logger,
	}
}

// Closed returns true once Close has been called.
func (socket *Socket) Closed() bool {
	return socket.ctx.Err() != nil
}

// Close stops reading and writing immediately. Queued lines are dropped.
func (socket *Socket) Close() error {
	var err error
	socket.closeOnce.Do(func() {
		socket.cancel()
		err = socket.conn.Close()
	})
	return err
}

// ReadLines calls handle for every received line, without the line
// terminator, until the connection fails or is closed. Partial lines are
// kept until the rest arrives, and lines longer than the limit are skipped.
// It returns io.EOF when the server closed the connection.
func (socket *Socket) ReadLines(handle func(line []byte)) error {
	reader := bufio.NewReaderSize(socket.conn, socket.maxLine)
	skipping := false

	for {
		line, err := reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			if !skipping {
				socket.log.Warn("skipping line over the length limit", "host", socket.Host, "limit", socket.maxLine)
			}
			skipping = true
			continue
		}
		if err != nil && (err != io.EOF || len(line) == 0) {
			return err
		}

		if skipping {
			skipping = false
		} else if line = bytes.TrimRight(line, "\r\n"); len(line) > 0 {
			handle(line)
		}

		if err != nil {
			return err
		}
	}
}

// Queue adds a line to the send queue without blocking. It returns false if
// the socket is closed or the queue is full.
func (socket *Socket) Queue(line string) bool {
	if socket.Closed() {
		return false
	}

	select {
	case socket.sendLines <- line:
		return true
	default:
		return false
	}
}

// RunSender writes queued lines to the connection until it is closed or a
// write fails.
func (socket *Socket) RunSender() error {
	for {
		select {
		case <-socket.ctx.Done():
			return nil
		case line := <-socket.sendLines:
			if err := socket.limiter.Wait(socket.ctx); err != nil {
				return nil
			}

			if !strings.HasSuffix(line, "\n") {
				line += "\r\n"
			}
			socket.log.Debug("->", "host", socket.Host, "line", strings.TrimRight(line, "\r\n"))

			if _, err := io.WriteString(socket.conn, line); err != nil {
				if socket.Closed() {
					return nil
				}
				return err
			}
		}
	}
}
