package ircsession

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goshuirc/ircsession/lib/ircclient"
)

// Metrics holds Prometheus metrics for the running sessions
type Metrics struct {
	messagesTotal     *prometheus.CounterVec
	invalidTotal      *prometheus.CounterVec
	stateChangesTotal *prometheus.CounterVec
	connected         *prometheus.GaugeVec
	socketErrorsTotal *prometheus.CounterVec
	isupportKeys      *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewMetrics creates the session metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircsession_messages_total",
			Help: "Total number of messages received, by type",
		},
		[]string{"network", "type"},
	)
	m.invalidTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircsession_invalid_messages_total",
			Help: "Total number of received messages missing required fields",
		},
		[]string{"network", "type"},
	)
	m.stateChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircsession_state_changes_total",
			Help: "Total number of connection state changes, by new state",
		},
		[]string{"network", "state"},
	)
	m.connected = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ircsession_connected",
			Help: "1 while the session is registered with the server",
		},
		[]string{"network"},
	)
	m.socketErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircsession_socket_errors_total",
			Help: "Total number of socket errors, by operation",
		},
		[]string{"network", "op"},
	)
	m.isupportKeys = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ircsession_isupport_keys",
			Help: "Number of ISUPPORT keys the server advertised",
		},
		[]string{"network"},
	)

	m.registry.MustRegister(
		m.messagesTotal,
		m.invalidTotal,
		m.stateChangesTotal,
		m.connected,
		m.socketErrorsTotal,
		m.isupportKeys,
	)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Register subscribes the metrics to session hooks.
func (m *Metrics) Register(bus *HookEmitter) {
	bus.Register(HookMessageName, m.onMessage)
	bus.Register(HookStateName, m.onState)
	bus.Register(HookInfoName, m.onInfo)
	bus.Register(HookSocketErrorName, m.onSocketError)
}

func (m *Metrics) onMessage(hook interface{}) {
	event := hook.(*HookMessage)
	mt := event.Message.Type.String()

	m.messagesTotal.WithLabelValues(event.Network, mt).Inc()
	if !event.Message.IsValid() {
		m.invalidTotal.WithLabelValues(event.Network, mt).Inc()
	}
}

func (m *Metrics) onState(hook interface{}) {
	event := hook.(*HookState)

	m.stateChangesTotal.WithLabelValues(event.Network, event.State.String()).Inc()
	if event.State == ircclient.Connected {
		m.connected.WithLabelValues(event.Network).Set(1)
	} else {
		m.connected.WithLabelValues(event.Network).Set(0)
	}
}

func (m *Metrics) onInfo(hook interface{}) {
	event := hook.(*HookInfo)
	m.isupportKeys.WithLabelValues(event.Network).Set(float64(len(event.Info)))
}

func (m *Metrics) onSocketError(hook interface{}) {
	event := hook.(*HookSocketError)

	op := "unknown"
	var sockErr *ircclient.SocketError
	if errors.As(event.Err, &sockErr) {
		op = sockErr.Op
	}
	m.socketErrorsTotal.WithLabelValues(event.Network, op).Inc()
}

// Serve exposes the metrics over HTTP on address until ctx is done.
func (m *Metrics) Serve(ctx context.Context, address string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "address", address)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
