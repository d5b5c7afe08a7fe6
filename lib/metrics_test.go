package ircsession

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goshuirc/ircsession/lib/ircclient"
)

// metricValue returns the value of the named metric with the given labels.
func metricValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if !labelsMatch(metric, labels) {
				continue
			}
			if metric.GetCounter() != nil {
				return metric.GetCounter().GetValue()
			}
			return metric.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if value, exists := labels[pair.GetName()]; exists {
			if value != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

// testSource is a session as seen by the flag resolver.
type testSource struct {
	nick string
}

func (src testSource) CurrentNick() string {
	return src.nick
}

func (src testSource) CapabilityEnabled(string) bool {
	return false
}

func TestMetricsFromHooks(t *testing.T) {
	bus := MakeHookEmitter()
	m := NewMetrics()
	m.Register(&bus)
	sink := bus.Sink("libera")

	for _, line := range []string{
		":a!u@h PRIVMSG #chan :one",
		":b!u@h PRIVMSG #chan :two",
		":a!u@h JOIN",
		"PING :x",
	} {
		msg := ircclient.Parse([]byte(line), testSource{nick: "me"}, nil)
		require.NotNil(t, msg, line)
		sink.OnMessage(msg)
	}

	sink.OnStateChanged(ircclient.Connecting)
	sink.OnStateChanged(ircclient.Connected)
	sink.OnSessionInfo(map[string]string{"NETWORK": "Libera", "CHANTYPES": "#"})
	sink.OnSocketError(&ircclient.SocketError{Op: "read", Err: io.EOF})
	sink.OnSocketError(errors.New("other"))

	network := map[string]string{"network": "libera"}
	withType := func(mt string) map[string]string {
		return map[string]string{"network": "libera", "type": mt}
	}

	assert.Equal(t, 2.0, metricValue(t, m, "ircsession_messages_total", withType("Private")))
	assert.Equal(t, 1.0, metricValue(t, m, "ircsession_messages_total", withType("Join")))
	assert.Equal(t, 1.0, metricValue(t, m, "ircsession_invalid_messages_total", withType("Join")))
	assert.Equal(t, 1.0, metricValue(t, m, "ircsession_messages_total", withType("Ping")))
	assert.Equal(t, 0.0, invalidCount(t, m, "Private"))
	assert.Equal(t, 1.0, metricValue(t, m, "ircsession_connected", network))
	assert.Equal(t, 2.0, metricValue(t, m, "ircsession_isupport_keys", network))
	assert.Equal(t, 1.0, metricValue(t, m, "ircsession_state_changes_total", map[string]string{"network": "libera", "state": "connecting"}))
	assert.Equal(t, 1.0, metricValue(t, m, "ircsession_socket_errors_total", map[string]string{"network": "libera", "op": "read"}))
	assert.Equal(t, 1.0, metricValue(t, m, "ircsession_socket_errors_total", map[string]string{"network": "libera", "op": "unknown"}))

	sink.OnStateChanged(ircclient.Disconnected)
	assert.Equal(t, 0.0, metricValue(t, m, "ircsession_connected", network))
}

// invalidCount returns how many invalid messages of type mt were counted.
func invalidCount(t *testing.T, m *Metrics, mt string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "ircsession_invalid_messages_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric, map[string]string{"type": mt}) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetricsServe(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	listener.Close()

	bus := MakeHookEmitter()
	m := NewMetrics()
	m.Register(&bus)
	bus.Sink("libera").OnStateChanged(ircclient.Connected)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Serve(ctx, address, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/metrics", address))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	assert.True(t, strings.Contains(body, `ircsession_connected{network="libera"} 1`), body)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("metrics server did not shut down")
	}
}
