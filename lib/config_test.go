package ircsession

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/goshuirc/ircsession/lib/ircclient"
)

const exampleConfig = `
client:
  metrics: "127.0.0.1:9101"
  networks:
    Libera:
      host: irc.libera.chat
      tls: true
      nick: dan
      alt-nick: dan_
      capabilities: [sasl, away-notify]
      send-rate: 10/5s
      send-burst: 3
    local:
      host: " localhost "
      nick: tester
      encoding: latin1
      max-line-length: 32KiB
`

func TestParseConfig(t *testing.T) {
	config, err := ParseConfig([]byte(exampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9101", config.Client.Metrics)
	assert.Equal(t, []string{"libera", "local"}, config.NetworkNames())

	libera, err := config.Network("LIBERA")
	require.NoError(t, err)
	assert.Equal(t, "libera", libera.Name)
	assert.Equal(t, "irc.libera.chat", libera.Host)
	assert.Equal(t, defaultTLSPort, libera.Port)
	assert.Equal(t, "dan", libera.User)
	assert.Equal(t, "dan", libera.Real)
	assert.Equal(t, "dan_", libera.AltNick)
	assert.Equal(t, ircclient.DefaultEncoding, libera.Encoding)
	assert.Equal(t, []string{"sasl", "away-notify"}, libera.Capabilities)
	assert.Equal(t, rate.Limit(2), libera.SendLimit())
	assert.Equal(t, 3, libera.SendBurst)
	assert.Equal(t, 16*1024, libera.MaxLineBytes())

	tlsConfig := libera.TLSConfig()
	require.NotNil(t, tlsConfig)
	assert.Equal(t, "irc.libera.chat", tlsConfig.ServerName)
	assert.False(t, tlsConfig.InsecureSkipVerify)

	local, err := config.Network("local")
	require.NoError(t, err)
	assert.Equal(t, "localhost", local.Host)
	assert.Equal(t, ircclient.DefaultPort, local.Port)
	assert.Equal(t, "ISO-8859-1", local.Encoding)
	assert.Equal(t, 32*1024, local.MaxLineBytes())
	assert.Equal(t, rate.Limit(2), local.SendLimit())
	assert.Equal(t, DefaultSendBurst, local.SendBurst)
	assert.Nil(t, local.TLSConfig())

	_, err = config.Network("efnet")
	assert.Error(t, err)
}

func TestParseConfigErrors(t *testing.T) {
	cases := map[string]string{
		"empty":        ``,
		"no networks":  "client:\n  networks: {}\n",
		"no host":      "client:\n  networks:\n    net:\n      nick: dan\n",
		"null network": "client:\n  networks:\n    net:\n",
		"bad nick":     "client:\n  networks:\n    net:\n      host: h\n      nick: \"1dan\"\n",
		"no nick":      "client:\n  networks:\n    net:\n      host: h\n",
		"bad alt nick": "client:\n  networks:\n    net:\n      host: h\n      nick: dan\n      alt-nick: \"d n\"\n",
		"bad encoding": "client:\n  networks:\n    net:\n      host: h\n      nick: dan\n      encoding: klingon\n",
		"bad length":   "client:\n  networks:\n    net:\n      host: h\n      nick: dan\n      max-line-length: lots\n",
		"bad rate":     "client:\n  networks:\n    net:\n      host: h\n      nick: dan\n      send-rate: fast\n",
		"bad name":     "client:\n  networks:\n    \"my net\":\n      host: h\n      nick: dan\n",
		"duplicate":    "client:\n  networks:\n    Net:\n      host: h\n      nick: dan\n    net:\n      host: h\n      nick: dan\n",
		"not yaml":     "client: [",
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestParseConfigUnsupportedEncoding(t *testing.T) {
	_, err := ParseConfig([]byte("client:\n  networks:\n    net:\n      host: h\n      nick: dan\n      encoding: klingon\n"))
	assert.ErrorIs(t, err, ircclient.ErrUnsupportedEncoding)
}

func TestVerifyTLS(t *testing.T) {
	config, err := ParseConfig([]byte("client:\n  networks:\n    net:\n      host: h\n      nick: dan\n      tls: true\n      port: 7000\n      verify-tls: false\n"))
	require.NoError(t, err)

	network, err := config.Network("net")
	require.NoError(t, err)
	assert.Equal(t, 7000, network.Port)
	assert.True(t, network.TLSConfig().InsecureSkipVerify)
}

func TestParseSendRate(t *testing.T) {
	good := map[string]rate.Limit{
		"":          rate.Inf,
		"0":         rate.Inf,
		"unlimited": rate.Inf,
		"2/s":       2,
		"10/5s":     2,
		"30/m":      0.5,
		" 4/S ":     4,
		"1/500ms":   2,
	}
	for value, expected := range good {
		limit, err := ParseSendRate(value)
		require.NoError(t, err, "rate %q", value)
		assert.InDelta(t, float64(expected), float64(limit), 0.0001, "rate %q", value)
	}

	for _, value := range []string{"2", "x/s", "-1/s", "2/fortnight", "2/0s", "0/s"} {
		_, err := ParseSendRate(value)
		assert.ErrorIs(t, err, errBadSendRate, "rate %q", value)
	}
}

func TestLoadConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "ircsession.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(exampleConfig), 0600))

	config, err := LoadConfig(filename)
	require.NoError(t, err)
	assert.Len(t, config.Client.Networks, 2)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	config, err := ParseConfig([]byte(exampleConfig))
	require.NoError(t, err)

	data, err := config.Marshal()
	require.NoError(t, err)

	again, err := ParseConfig(data)
	require.NoError(t, err)

	network, err := again.Network("libera")
	require.NoError(t, err)
	assert.Equal(t, "irc.libera.chat", network.Host)
	assert.Equal(t, []string{"sasl", "away-notify"}, network.Capabilities)
	assert.Equal(t, "10/5s", network.SendRate)
}

func TestWebSocketConfig(t *testing.T) {
	config, err := ParseConfig([]byte("client:\n  networks:\n    net:\n      websocket: wss://irc.example.net:8097/webirc\n      nick: dan\n"))
	require.NoError(t, err)

	network, err := config.Network("net")
	require.NoError(t, err)
	assert.Equal(t, "irc.example.net", network.Host)
	assert.True(t, network.TLS)
	assert.Equal(t, "irc.example.net", network.TLSConfig().ServerName)

	config, err = ParseConfig([]byte("client:\n  networks:\n    net:\n      host: other.example.net\n      websocket: ws://127.0.0.1:8080/\n      nick: dan\n"))
	require.NoError(t, err)
	network, err = config.Network("net")
	require.NoError(t, err)
	assert.Equal(t, "other.example.net", network.Host)
	assert.False(t, network.TLS)

	for _, endpoint := range []string{"http://irc.example.net/", "wss://", "::"} {
		_, err := ParseConfig([]byte("client:\n  networks:\n    net:\n      websocket: \"" + endpoint + "\"\n      nick: dan\n"))
		assert.ErrorIs(t, err, errBadWebSocket, "endpoint %q", endpoint)
	}
}
