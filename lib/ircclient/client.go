// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// DefaultPort is the plaintext IRC port.
const DefaultPort = 6667

// Session is a single IRC connection. It owns the socket and the state
// machine, and hands every received message to its Sink.
//
// All state changes happen with the session locked. Sink methods are called
// without the lock held, one at a time and in order, so they may call back
// into the session.
type Session struct {
	mu sync.Mutex

	host      string
	port      int
	useTLS    bool
	tlsConfig *tls.Config
	webSocket string
	encoding  *Encoding

	maxLineLength int
	sendLimit     rate.Limit
	sendBurst     int

	machine    *Machine
	socket     *Socket
	generation int

	sink       Sink
	hooks      Hooks
	pending    []Event
	delivering bool

	log *slog.Logger
}

// NewSession returns a disconnected session delivering to sink.
func NewSession(sink Sink, logger *slog.Logger) *Session {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		port:      DefaultPort,
		encoding:  defaultEncoding(),
		sendLimit: rate.Inf,
		sendBurst: 1,
		machine:   NewMachine(logger),
		sink:      sink,
		log:       logger,
	}
}

// SetHooks replaces the collaborators asked during registration.
func (s *Session) SetHooks(hooks Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = hooks
}

func (s *Session) warnIfActive(setter string) {
	if s.machine.IsActive() {
		s.log.Warn(fmt.Sprintf("Session.%s() has no effect until re-connect", setter), "host", s.host)
	}
}

// Host returns the server host.
func (s *Session) Host() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host
}

// SetHost sets the server host.
func (s *Session) SetHost(host string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnIfActive("SetHost")
	s.host = host
}

// Port returns the server port.
func (s *Session) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// SetPort sets the server port.
func (s *Session) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnIfActive("SetPort")
	s.port = port
}

// SetTLS enables or disables TLS. config may be nil.
func (s *Session) SetTLS(enabled bool, config *tls.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnIfActive("SetTLS")
	s.useTLS = enabled
	s.tlsConfig = config
}

// WebSocket returns the WebSocket URL, or "" when connecting over TCP.
func (s *Session) WebSocket() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.webSocket
}

// SetWebSocket makes Open connect to a ws:// or wss:// URL instead of
// host:port. The TLS config set with SetTLS is used for wss://.
func (s *Session) SetWebSocket(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnIfActive("SetWebSocket")
	s.webSocket = url
}

// UserName returns the user name.
func (s *Session) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.UserName()
}

// SetUserName sets the user name. Only the first word is used.
func (s *Session) SetUserName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnIfActive("SetUserName")
	s.machine.SetUserName(name)
}

// RealName returns the real name.
func (s *Session) RealName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.RealName()
}

// SetRealName sets the real name.
func (s *Session) SetRealName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnIfActive("SetRealName")
	s.machine.SetRealName(name)
}

// NickName returns our current nick.
func (s *Session) NickName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.CurrentNick()
}

// SetNickName changes our nick. While the session is active a NICK command
// is sent instead, and NickName changes once the server confirms it. While
// dialing, the new nick is the one registration will use.
func (s *Session) SetNickName(name string) {
	s.mu.Lock()
	if s.socket == nil {
		s.machine.SetRegistrationNick(name)
		s.mu.Unlock()
		return
	}
	s.finish(s.machine.SetNick(name))
}

// SetAltNickName sets the nick tried first if ours is taken while registering.
func (s *Session) SetAltNickName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.SetAltNick(name)
}

// Encoding returns the name of the fallback encoding.
func (s *Session) Encoding() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoding.Name
}

// SetEncoding sets the fallback encoding for lines that are not valid UTF-8.
// Unsupported encodings are rejected and the current one is kept.
func (s *Session) SetEncoding(name string) error {
	enc, err := LookupEncoding(name)
	if err != nil {
		s.log.Warn("Session.SetEncoding(): unsupported encoding", "encoding", name)
		return fmt.Errorf("%w: %q", err, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.encoding = enc
	return nil
}

// SetMaxLineLength bounds received lines. It applies from the next connect.
func (s *Session) SetMaxLineLength(length int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxLineLength = length
}

// SetSendRate limits how fast lines are written. It applies from the next
// connect.
func (s *Session) SetSendRate(limit rate.Limit, burst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if burst < 1 {
		burst = 1
	}
	s.sendLimit = limit
	s.sendBurst = burst
}

// State returns the connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// IsActive returns true while the socket is not disconnected.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.IsActive()
}

// IsConnected returns true once the server has welcomed us.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.IsConnected()
}

// Info returns a copy of the ISUPPORT values.
func (s *Session) Info() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Info()
}

// ActiveCapabilities returns the acknowledged capabilities.
func (s *Session) ActiveCapabilities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.ActiveCapabilities()
}

// AvailableCapabilities returns the capabilities the server offers.
func (s *Session) AvailableCapabilities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.AvailableCapabilities()
}

func (s *Session) validate() error {
	if s.host == "" {
		return ErrMissingHost
	}
	if s.machine.UserName() == "" {
		return ErrMissingUserName
	}
	if s.machine.CurrentNick() == "" {
		return ErrMissingNickName
	}
	if s.machine.RealName() == "" {
		return ErrMissingRealName
	}
	return nil
}

// Open connects to the server and starts registration. It returns once the
// connection is established; everything after that is reported to the Sink.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()

	if err := s.validate(); err != nil {
		s.mu.Unlock()
		s.log.Error("Session.Open(): "+err.Error(), "host", s.host)
		return err
	}
	if s.machine.IsActive() {
		s.mu.Unlock()
		return ErrAlreadyActive
	}

	s.generation++
	generation := s.generation
	host, port, useTLS, tlsConfig, webSocket := s.host, s.port, s.useTLS, s.tlsConfig, s.webSocket

	s.finish(s.machine.Dial())

	var conn net.Conn
	var err error
	if webSocket != "" {
		conn, err = DialWebSocket(ctx, webSocket, tlsConfig)
	} else {
		conn, err = Dial(ctx, host, port, useTLS, tlsConfig)
	}

	s.mu.Lock()
	if generation != s.generation {
		// closed while dialing
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return ErrNotConnected
	}
	if err != nil {
		sockErr := &SocketError{Op: "dial", Err: err}
		s.finish(s.machine.Fail(sockErr))
		return sockErr
	}

	s.attach(conn, host)
	return nil
}

// OpenConn starts registration over an already established connection, such
// as one going through a proxy.
func (s *Session) OpenConn(conn net.Conn) error {
	s.mu.Lock()

	if err := s.validate(); err != nil {
		s.mu.Unlock()
		s.log.Error("Session.OpenConn(): "+err.Error(), "host", s.host)
		return err
	}
	if s.machine.IsActive() {
		s.mu.Unlock()
		return ErrAlreadyActive
	}

	s.generation++
	s.attach(conn, s.host)
	return nil
}

// attach starts using conn and queues registration. s.mu must be held; it is
// released before returning.
func (s *Session) attach(conn net.Conn, host string) {
	limiter := rate.NewLimiter(s.sendLimit, s.sendBurst)
	socket := NewSocket(conn, host, limiter, s.maxLineLength, s.log)
	s.socket = socket

	go s.runSender(socket)
	go s.runReader(socket)

	s.finish(s.machine.Connect(s.hooks))
}

// Close drops the connection. Lines still queued are not sent.
func (s *Session) Close() {
	s.mu.Lock()
	s.generation++
	if s.socket != nil {
		s.socket.Close()
		s.socket = nil
	}
	s.finish(s.machine.Close())
}

// SendRaw queues a raw line for the server.
func (s *Session) SendRaw(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue(line)
}

// WriteLine formats and queues a raw line for the server.
func (s *Session) WriteLine(format string, args ...interface{}) error {
	return s.SendRaw(fmt.Sprintf(format, args...))
}

// queue must be called with s.mu held.
func (s *Session) queue(line string) error {
	if s.socket == nil {
		return ErrNotConnected
	}
	line = strings.TrimRight(line, "\r\n")
	if !s.socket.Queue(line) {
		s.log.Warn("dropping outgoing line, send queue unavailable", "host", s.host, "line", line)
		return ErrNotConnected
	}
	return nil
}

// finish applies a transition: it queues the lines, then delivers the events
// with the lock released. s.mu must be held; it is released on return.
//
// Events raised while another goroutine (or a sink callback) is delivering
// are appended to the same queue and delivered by that goroutine, which
// keeps them in order.
func (s *Session) finish(step Step) {
	for _, line := range step.Lines {
		if err := s.queue(line); err != nil {
			s.log.Debug("line not sent", "line", line, "err", err)
		}
	}

	s.pending = append(s.pending, step.Events...)
	if s.delivering {
		s.mu.Unlock()
		return
	}

	s.delivering = true
	for len(s.pending) > 0 {
		events := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, event := range events {
			event.Deliver(s.sink)
		}

		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}

func (s *Session) runReader(socket *Socket) {
	err := socket.ReadLines(func(line []byte) {
		s.mu.Lock()
		if s.socket != socket {
			s.mu.Unlock()
			return
		}

		s.log.Debug("<-", "host", socket.Host, "line", string(line))

		msg := Parse(line, s.machine, s.encoding)
		if msg == nil {
			s.log.Debug("dropping malformed line", "host", socket.Host, "line", string(line))
			s.mu.Unlock()
			return
		}

		s.finish(s.machine.Receive(msg, s.hooks))
	})

	s.socketFailed(socket, "read", err)
}

func (s *Session) runSender(socket *Socket) {
	if err := socket.RunSender(); err != nil {
		s.socketFailed(socket, "write", err)
	}
}

// socketFailed ends the connection if socket is still the current one.
func (s *Session) socketFailed(socket *Socket, op string, err error) {
	s.mu.Lock()
	if s.socket != socket {
		s.mu.Unlock()
		return
	}

	socket.Close()
	s.socket = nil
	s.generation++

	sockErr := &SocketError{Op: op, Err: err}
	s.log.Info("connection lost", "host", socket.Host, "err", sockErr)
	s.finish(s.machine.Fail(sockErr))
}
