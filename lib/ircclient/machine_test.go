package ircclient

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine() *Machine {
	m := NewMachine(nil)
	m.SetNick("myself")
	m.SetUserName("user")
	m.SetRealName("Real Name")
	return m
}

func receive(t *testing.T, m *Machine, hooks Hooks, line string) Step {
	t.Helper()
	msg := Parse([]byte(line), m, nil)
	require.NotNil(t, msg, "line %q", line)
	return m.Receive(msg, hooks)
}

func stateEvents(step Step) []State {
	var states []State
	for _, event := range step.Events {
		if event.Kind == StateEvent {
			states = append(states, event.State)
		}
	}
	return states
}

func TestConnectSendsRegistration(t *testing.T) {
	m := newTestMachine()
	m.active.Apply("stale")
	m.info["STALE"] = "1"

	step := m.Connect(Hooks{Password: func() string { return "secret" }})

	assert.Equal(t, []string{
		"PASS secret",
		"CAP LS 302",
		"NICK myself",
		"USER user 0 * :Real Name",
	}, step.Lines)
	assert.Equal(t, []State{Connecting, Registering}, stateEvents(step))
	assert.Equal(t, Registering, m.State())
	assert.Empty(t, m.ActiveCapabilities())
	assert.Empty(t, m.Info())

	m.Close()
	step = m.Connect(Hooks{Password: func() string { return "" }})
	assert.Equal(t, "CAP LS 302", step.Lines[0])
}

func TestWelcome(t *testing.T) {
	m := newTestMachine()
	m.Connect(Hooks{})

	step := receive(t, m, Hooks{}, ":server 001 myself_ :Welcome")

	assert.Equal(t, "myself_", m.CurrentNick())
	assert.Equal(t, Connected, m.State())
	assert.True(t, m.IsConnected())
	assert.Equal(t, []State{Connected}, stateEvents(step))

	// the message always comes last
	last := step.Events[len(step.Events)-1]
	require.Equal(t, MessageEvent, last.Kind)
	assert.Equal(t, NumericMT, last.Message.Type)
	assert.Equal(t, 1, last.Message.Code())
}

func TestCapabilityNegotiation(t *testing.T) {
	m := newTestMachine()
	m.Connect(Hooks{})

	var offered []string
	hooks := Hooks{
		Capabilities: func(available []string) []string {
			offered = available
			return []string{"sasl"}
		},
	}

	step := receive(t, m, hooks, "CAP * LS :multi-prefix sasl")
	assert.Equal(t, []string{"multi-prefix", "sasl"}, offered)
	assert.Equal(t, []string{"CAP REQ :sasl"}, step.Lines)

	step = receive(t, m, hooks, "CAP * ACK :sasl")
	assert.Equal(t, []string{"sasl"}, m.ActiveCapabilities())
	assert.True(t, m.CapabilityEnabled("sasl"))
	assert.Equal(t, []string{"CAP END"}, step.Lines)
}

func TestCapabilityNegotiationWithoutRequests(t *testing.T) {
	m := newTestMachine()
	m.Connect(Hooks{})

	step := receive(t, m, Hooks{}, "CAP * LS :multi-prefix")
	assert.Equal(t, []string{"CAP END"}, step.Lines)

	hooks := Hooks{Capabilities: func([]string) []string { return []string{" ", ""} }}
	step = receive(t, m, hooks, "CAP * LS :multi-prefix")
	assert.Equal(t, []string{"CAP END"}, step.Lines)
}

func TestCapabilityContinuation(t *testing.T) {
	m := newTestMachine()
	m.Connect(Hooks{})

	hooks := Hooks{Capabilities: func(available []string) []string { return available }}

	step := receive(t, m, hooks, "CAP * LS * :multi-prefix")
	assert.Empty(t, step.Lines)

	step = receive(t, m, hooks, "CAP * LS :sasl")
	assert.Equal(t, []string{"CAP REQ :multi-prefix sasl"}, step.Lines)
}

func TestCapabilityNak(t *testing.T) {
	m := newTestMachine()
	m.Connect(Hooks{})

	step := receive(t, m, Hooks{}, "CAP * NAK :sasl")
	assert.Equal(t, []string{"CAP END"}, step.Lines)
	assert.Empty(t, m.ActiveCapabilities())

	receive(t, m, Hooks{}, ":server 001 myself :Welcome")
	step = receive(t, m, Hooks{}, "CAP myself NAK :sasl")
	assert.Empty(t, step.Lines)
}

func TestCapabilityNewAndDel(t *testing.T) {
	m := newTestMachine()
	m.Connect(Hooks{})
	receive(t, m, Hooks{}, "CAP * LS :sasl")
	receive(t, m, Hooks{}, "CAP * ACK :sasl")
	receive(t, m, Hooks{}, ":server 001 myself :Welcome")

	step := receive(t, m, Hooks{}, "CAP myself NEW :away-notify")
	assert.Empty(t, step.Lines)
	assert.Equal(t, []string{"away-notify", "sasl"}, m.AvailableCapabilities())

	receive(t, m, Hooks{}, "CAP myself DEL :sasl")
	assert.Equal(t, []string{"away-notify"}, m.AvailableCapabilities())
	assert.Empty(t, m.ActiveCapabilities())
}

func TestISupport(t *testing.T) {
	m := newTestMachine()
	m.Connect(Hooks{})

	step := receive(t, m, Hooks{}, ":server 005 myself NETWORK=Example CHANTYPES=# EXCEPTS :are supported by this server")
	assert.Equal(t, map[string]string{
		"NETWORK":   "Example",
		"CHANTYPES": "#",
		"EXCEPTS":   "",
	}, m.Info())

	require.Len(t, step.Events, 2)
	assert.Equal(t, InfoEvent, step.Events[0].Kind)
	assert.Equal(t, "Example", step.Events[0].Info["NETWORK"])

	receive(t, m, Hooks{}, ":server 005 myself NETWORK=Other -EXCEPTS :are supported by this server")
	assert.Equal(t, map[string]string{
		"NETWORK":   "Other",
		"CHANTYPES": "#",
	}, m.Info())
}

func TestPingPong(t *testing.T) {
	m := newTestMachine()
	m.Connect(Hooks{})

	step := receive(t, m, Hooks{}, "PING :irc.example.net")
	assert.Equal(t, []string{"PONG :irc.example.net"}, step.Lines)
	assert.Equal(t, PingMT, step.Events[len(step.Events)-1].Message.Type)
}

func TestOwnNickChange(t *testing.T) {
	m := newTestMachine()
	m.Connect(Hooks{})
	receive(t, m, Hooks{}, ":server 001 myself :Welcome")

	step := m.SetNick("newnick and more")
	assert.Equal(t, []string{"NICK newnick"}, step.Lines)
	assert.Equal(t, "myself", m.CurrentNick())

	receive(t, m, Hooks{}, ":someone!u@h NICK other")
	assert.Equal(t, "myself", m.CurrentNick())

	step = receive(t, m, Hooks{}, ":myself!u@h NICK newnick")
	assert.Equal(t, "newnick", m.CurrentNick())
	assert.True(t, step.Events[0].Message.Flags().Has(FlagOwn))
}

func TestSetNickWhileInactive(t *testing.T) {
	m := NewMachine(nil)

	step := m.SetNick("  first second")
	assert.Empty(t, step.Lines)
	assert.Equal(t, "first", m.CurrentNick())

	step = m.SetNick("   ")
	assert.Empty(t, step.Lines)
	assert.Equal(t, "first", m.CurrentNick())
}

func TestNickInUse(t *testing.T) {
	m := newTestMachine()
	m.SetAltNick("alt")
	m.Connect(Hooks{})

	step := receive(t, m, Hooks{}, ":server 433 * myself :Nickname is already in use")
	assert.Equal(t, []string{"NICK alt"}, step.Lines)

	step = receive(t, m, Hooks{}, ":server 433 * alt :Nickname is already in use")
	assert.Equal(t, []string{"NICK alt_"}, step.Lines)

	receive(t, m, Hooks{}, ":server 001 alt_ :Welcome")
	step = receive(t, m, Hooks{}, ":server 433 alt_ taken :Nickname is already in use")
	assert.Empty(t, step.Lines)
}

func TestCTCPRequests(t *testing.T) {
	m := newTestMachine()
	m.Connect(Hooks{})

	step := receive(t, m, Hooks{}, ":friend!u@h PRIVMSG myself :\x01PING 123\x01")
	assert.Equal(t, []string{"NOTICE friend :\x01PING 123\x01"}, step.Lines)

	step = receive(t, m, Hooks{}, ":friend!u@h PRIVMSG myself :\x01VERSION\x01")
	assert.Equal(t, []string{"NOTICE friend :\x01VERSION " + Version + "\x01"}, step.Lines)

	step = receive(t, m, Hooks{}, ":friend!u@h PRIVMSG myself :\x01TIME\x01")
	require.Len(t, step.Lines, 1)
	assert.True(t, strings.HasPrefix(step.Lines[0], "NOTICE friend :\x01TIME "))

	step = receive(t, m, Hooks{}, ":friend!u@h PRIVMSG myself :\x01FINGER\x01")
	assert.Empty(t, step.Lines)

	step = receive(t, m, Hooks{}, ":friend!u@h PRIVMSG #chan :\x01ACTION waves\x01")
	assert.Empty(t, step.Lines)

	hooks := Hooks{CTCPReply: func(request *Message) string {
		return "CLIENTINFO ACTION PING"
	}}
	step = receive(t, m, hooks, ":friend!u@h PRIVMSG myself :\x01CLIENTINFO\x01")
	assert.Equal(t, []string{"NOTICE friend :\x01CLIENTINFO ACTION PING\x01"}, step.Lines)
}

func TestEveryMessageIsDelivered(t *testing.T) {
	m := newTestMachine()
	m.Connect(Hooks{})

	lines := []string{
		":server 001 myself :Welcome",
		"PING :x",
		":server CAP myself ACK",
		":a!u@h PRIVMSG #chan",
		":server WALLOPS :hi",
	}
	for _, line := range lines {
		step := receive(t, m, Hooks{}, line)

		var delivered int
		for _, event := range step.Events {
			if event.Kind == MessageEvent {
				delivered++
			}
		}
		assert.Equal(t, 1, delivered, line)
	}
}

func TestFailAndClose(t *testing.T) {
	m := newTestMachine()
	m.Connect(Hooks{})

	sockErr := &SocketError{Op: "read", Err: errors.New("reset")}
	step := m.Fail(sockErr)
	assert.Equal(t, Disconnected, m.State())
	require.Len(t, step.Events, 2)
	assert.Equal(t, StateEvent, step.Events[0].Kind)
	assert.Equal(t, SocketErrorEvent, step.Events[1].Kind)
	assert.ErrorIs(t, step.Events[1].Err, sockErr)

	step = m.Close()
	assert.Empty(t, step.Events)
}
