// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"fmt"
	"log/slog"
	"strings"
)

// State is the connection state of a session.
type State int

const (
	Disconnected State = iota
	Connecting
	Registering
	Connected
)

func (state State) String() string {
	switch state {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Registering:
		return "registering"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("State(%d)", int(state))
}

// Step is the outcome of a single transition: lines to write to the server
// and events to hand to the sink, both in order.
type Step struct {
	Lines  []string
	Events []Event
}

// send queues a raw line, formatted like WriteLine.
func (step *Step) send(format string, args ...interface{}) {
	step.Lines = append(step.Lines, fmt.Sprintf(format, args...))
}

func (step *Step) emit(event Event) {
	step.Events = append(step.Events, event)
}

// Machine is the connection state of one session. It performs no I/O:
// every transition returns the lines to send and the events to deliver.
// A Machine is not safe for concurrent use.
type Machine struct {
	state State

	nick     string
	altNick  string
	userName string
	realName string

	nickAttempts int

	active    *CapSet
	available *CapSet
	info      map[string]string

	log *slog.Logger
}

// NewMachine returns a disconnected machine.
func NewMachine(logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		active:    NewCapSet(),
		available: NewCapSet(),
		info:      make(map[string]string),
		log:       logger,
	}
}

// CurrentNick returns our nick as the server knows it.
func (m *Machine) CurrentNick() string {
	return m.nick
}

// CapabilityEnabled checks if a capability has been acknowledged.
func (m *Machine) CapabilityEnabled(name string) bool {
	return m.active.Has(name)
}

// State returns the current connection state.
func (m *Machine) State() State {
	return m.state
}

// IsActive is true whenever the socket is not disconnected.
func (m *Machine) IsActive() bool {
	return m.state != Disconnected
}

// IsConnected is true once the welcome reply has been received.
func (m *Machine) IsConnected() bool {
	return m.state == Connected
}

// UserName returns the user name sent on registration.
func (m *Machine) UserName() string {
	return m.userName
}

// SetUserName sets the user name used on the next registration. Only the
// first word is kept.
func (m *Machine) SetUserName(name string) {
	m.userName = firstWord(name)
}

// RealName returns the real name sent on registration.
func (m *Machine) RealName() string {
	return m.realName
}

// SetRealName sets the real name used on the next registration.
func (m *Machine) SetRealName(name string) {
	m.realName = name
}

// AltNick returns the nick tried first when ours is taken during registration.
func (m *Machine) AltNick() string {
	return m.altNick
}

// SetAltNick sets the fallback nick.
func (m *Machine) SetAltNick(name string) {
	m.altNick = firstWord(name)
}

// Info returns a copy of the ISUPPORT values received so far.
func (m *Machine) Info() map[string]string {
	info := make(map[string]string, len(m.info))
	for key, value := range m.info {
		info[key] = value
	}
	return info
}

// ActiveCapabilities returns the acknowledged capabilities.
func (m *Machine) ActiveCapabilities() []string {
	return m.active.Names()
}

// AvailableCapabilities returns the capabilities the server offers.
func (m *Machine) AvailableCapabilities() []string {
	return m.available.Names()
}

func (m *Machine) setState(state State, step *Step) {
	if m.state == state {
		return
	}
	m.log.Debug("state changed", "from", m.state.String(), "to", state.String())
	m.state = state
	step.emit(Event{Kind: StateEvent, State: state})
}

// SetNick changes our nick. While active the change has to be requested from
// the server, and the nick is only updated once it is echoed back to us.
func (m *Machine) SetNick(name string) Step {
	var step Step

	nick := firstWord(name)
	if nick == "" || nick == m.nick {
		return step
	}

	if m.IsActive() {
		step.send("NICK %s", nick)
	} else {
		m.nick = nick
	}
	return step
}

// SetRegistrationNick replaces our nick without asking the server. It is for
// changes made before registration has been sent, such as while dialing.
func (m *Machine) SetRegistrationNick(name string) {
	if nick := firstWord(name); nick != "" {
		m.nick = nick
	}
}

// Dial marks the socket as leaving the disconnected state.
func (m *Machine) Dial() Step {
	var step Step
	m.setState(Connecting, &step)
	return step
}

// Connect handles the socket becoming connected and queues registration.
func (m *Machine) Connect(hooks Hooks) Step {
	var step Step

	m.setState(Connecting, &step)

	m.active.Clear()
	m.available.Clear()
	m.info = make(map[string]string)
	m.nickAttempts = 0

	var password string
	if hooks.Password != nil {
		password = hooks.Password()
	}

	if password != "" {
		step.send("PASS %s", password)
	}
	step.send("CAP LS 302")
	step.send("NICK %s", m.nick)
	step.send("USER %s 0 * :%s", m.userName, m.realName)

	m.setState(Registering, &step)
	return step
}

// Receive applies msg to the state and returns what to send and deliver.
// The message itself is always delivered, last.
func (m *Machine) Receive(msg *Message, hooks Hooks) Step {
	var step Step

	// flags are fixed against the state as it was when the line arrived
	msg.Flags()

	var command serverCommand
	var exists bool
	if msg.Type == NumericMT {
		command, exists = numericCommands[msg.Code()]
	} else {
		command, exists = serverCommands[msg.Type]
	}

	if exists {
		command.Run(m, msg, hooks, &step)
	}

	step.emit(Event{Kind: MessageEvent, Message: msg})
	return step
}

// Fail handles a socket error.
func (m *Machine) Fail(err error) Step {
	var step Step
	m.setState(Disconnected, &step)
	step.emit(Event{Kind: SocketErrorEvent, Err: err})
	return step
}

// Close handles the socket being closed on purpose or by the server.
func (m *Machine) Close() Step {
	var step Step
	m.setState(Disconnected, &step)
	return step
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
