// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package ircsession

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/goshuirc/ircsession/lib/ircclient"
)

var (
	// QuitSignals is the list of signals we quit on
	QuitSignals = []os.Signal{syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT}

	// quitGrace is how long we wait for the server to close the link after QUIT.
	quitGrace = 3 * time.Second
)

// Manager runs a session for one configured network and feeds its events to
// the registered components.
type Manager struct {
	// ID tells the log lines of this manager apart from those of others
	// running on the same network.
	ID string

	Config  *Config
	Network *NetworkConfig
	Bus     HookEmitter
	Session *ircclient.Session
	Metrics *Metrics
	Log     *slog.Logger

	// Out is where components print to.
	Out io.Writer

	// PasswordPrompt asks for the server password when the network has
	// ask-password set.
	PasswordPrompt func(prompt string) (string, error)

	password     string
	quitSignals  chan os.Signal
	disconnected chan error
}

// NewManager creates a manager for the named network.
func NewManager(config *Config, network string, logger *slog.Logger) (*Manager, error) {
	netConfig, err := config.Network(network)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	m := &Manager{
		ID:           id,
		Config:       config,
		Network:      netConfig,
		Bus:          MakeHookEmitter(),
		Metrics:      NewMetrics(),
		Log:          logger.With("network", netConfig.Name, "session", id),
		Out:          os.Stdout,
		password:     netConfig.Password,
		quitSignals:  make(chan os.Signal, len(QuitSignals)),
		disconnected: make(chan error, 1),
	}

	m.Session, err = m.newSession()
	if err != nil {
		return nil, fmt.Errorf("Creating session for %s failed: %w", netConfig.Name, err)
	}

	m.Metrics.Register(&m.Bus)
	m.Bus.Register(HookSocketErrorName, m.onSocketError)

	return m, nil
}

func (m *Manager) newSession() (*ircclient.Session, error) {
	network := m.Network

	session := ircclient.NewSession(m.Bus.Sink(network.Name), m.Log)
	session.SetHost(network.Host)
	session.SetPort(network.Port)
	session.SetTLS(network.TLS, network.TLSConfig())
	session.SetWebSocket(network.WebSocket)
	session.SetUserName(network.User)
	session.SetNickName(network.Nick)
	session.SetAltNickName(network.AltNick)
	session.SetRealName(network.Real)
	session.SetMaxLineLength(network.MaxLineBytes())
	session.SetSendRate(network.SendLimit(), network.SendBurst)
	if err := session.SetEncoding(network.Encoding); err != nil {
		return nil, err
	}
	session.SetHooks(m.Hooks())

	return session, nil
}

// Hooks returns the collaborators the session asks during registration.
func (m *Manager) Hooks() ircclient.Hooks {
	return ircclient.Hooks{
		Password: func() string {
			return m.password
		},
		Capabilities: func(available []string) []string {
			return wantedCapabilities(m.Network.Capabilities, available)
		},
		CTCPReply: func(request *ircclient.Message) string {
			if strings.EqualFold(strings.TrimSpace(request.Body()), "VERSION") {
				return "VERSION " + Ver
			}
			return ircclient.DefaultCTCPReply(request)
		},
	}
}

// wantedCapabilities returns the configured capabilities the server offers,
// in configuration order.
func wantedCapabilities(wanted, available []string) []string {
	offered := ircclient.NewCapSet(available...)

	var request []string
	for _, name := range wanted {
		if offered.Has(name) {
			request = append(request, name)
		}
	}
	return request
}

func (m *Manager) onSocketError(hook interface{}) {
	event := hook.(*HookSocketError)
	if event.Network != m.Network.Name {
		return
	}

	select {
	case m.disconnected <- event.Err:
	default:
	}
}

// Run connects and blocks until a quit signal arrives, ctx is done, or the
// connection is lost.
func (m *Manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if m.Network.AskPassword && m.PasswordPrompt != nil {
		password, err := m.PasswordPrompt(fmt.Sprintf("Password for %s: ", m.Network.Name))
		if err != nil {
			return fmt.Errorf("Could not read password: %w", err)
		}
		m.password = password
	}

	if m.Config.Client.Metrics != "" {
		go func() {
			if err := m.Metrics.Serve(ctx, m.Config.Client.Metrics, m.Log); err != nil {
				m.Log.Error("metrics server failed", "err", err)
			}
		}()
	}

	signal.Notify(m.quitSignals, QuitSignals...)
	defer signal.Stop(m.quitSignals)

	if m.Network.WebSocket != "" {
		m.Log.Info("connecting", "websocket", m.Network.WebSocket)
	} else {
		m.Log.Info("connecting", "host", m.Network.Host, "port", m.Network.Port, "tls", m.Network.TLS)
	}
	if err := m.Session.Open(ctx); err != nil {
		return err
	}

	select {
	case err := <-m.disconnected:
		return err
	case sig := <-m.quitSignals:
		m.Log.Info("quitting", "signal", sig.String())
	case <-ctx.Done():
	}

	m.quit()
	return nil
}

// quit asks the server to close the link, then closes it ourselves if it
// doesn't.
func (m *Manager) quit() {
	if m.Session.IsActive() {
		if err := m.Session.WriteLine("QUIT :%s", Ver); err == nil {
			select {
			case <-m.disconnected:
			case <-time.After(quitGrace):
			}
		}
	}
	m.Session.Close()
}
