package ircsetup

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goshuirc/ircsession/lib"
)

func init() {
	color.NoColor = true
}

func answers(lines ...string) {
	SetInput(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func TestQueryBool(t *testing.T) {
	answers("", "maybe", "Yes", "0")

	value, err := QueryBool("? ")
	require.NoError(t, err)
	assert.True(t, value)

	value, err = QueryBool("? ")
	require.NoError(t, err)
	assert.False(t, value)

	_, err = QueryBool("? ")
	assert.Error(t, err)
}

func TestQueryDefault(t *testing.T) {
	answers("", "  ", "value")

	for _, expected := range []string{"fallback", "fallback", "value"} {
		value, err := QueryDefault("? ", "fallback")
		require.NoError(t, err)
		assert.Equal(t, expected, value)
	}
}

func TestQueryWithoutTrailingNewline(t *testing.T) {
	SetInput(strings.NewReader("last"))

	value, err := Query("? ")
	require.NoError(t, err)
	assert.Equal(t, "last", value)
}

func TestQueryNetwork(t *testing.T) {
	answers(
		"bad name", // rejected
		"Libera",
		"", // empty host is rejected
		"irc.libera.chat",
		"y",     // tls
		"n",     // verify
		"99999", // out of range
		"",      // default port
		"",      // nick
		"1bad",  // rejected
		"",      // alt nick
		"user",
		"Real Name",
		"y",       // ask for the password
		"klingon", // unsupported
		"latin1",
		"sasl server-time",
	)

	network, err := QueryNetwork()
	require.NoError(t, err)

	assert.Equal(t, "libera", network.Name)
	assert.Equal(t, "irc.libera.chat", network.Host)
	assert.True(t, network.TLS)
	require.NotNil(t, network.VerifyTLS)
	assert.False(t, *network.VerifyTLS)
	assert.Equal(t, 6697, network.Port)
	assert.Equal(t, "ircsession", network.Nick)
	assert.Equal(t, "ircsession_", network.AltNick)
	assert.Equal(t, "user", network.User)
	assert.Equal(t, "Real Name", network.Real)
	assert.True(t, network.AskPassword)
	assert.Equal(t, "", network.Password)
	assert.Equal(t, "ISO-8859-1", network.Encoding)
	assert.Equal(t, []string{"sasl", "server-time"}, network.Capabilities)
}

func TestInitialSetup(t *testing.T) {
	answers(
		"Local",
		"localhost",
		"n",  // tls
		"",   // port
		"me", // nick
		"",   // alt nick
		"",   // user
		"",   // real name
		"y",  // ask for the password
		"",   // encoding
		"",   // capabilities
		"n",  // another network
		"y",  // metrics
		"",   // metrics address
	)

	filename := filepath.Join(t.TempDir(), "ircsession.yaml")
	require.NoError(t, InitialSetup(filename))

	config, err := ircsession.LoadConfig(filename)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9120", config.Client.Metrics)

	network, err := config.Network("local")
	require.NoError(t, err)
	assert.Equal(t, "localhost", network.Host)
	assert.Equal(t, 6667, network.Port)
	assert.Equal(t, "me", network.Nick)
	assert.Equal(t, "me_", network.AltNick)
	assert.Equal(t, "me", network.User)
	assert.Equal(t, "me", network.Real)
	assert.Equal(t, []string{"multi-prefix", "server-time", "identify-msg"}, network.Capabilities)
}

func TestInitialSetupInputEnds(t *testing.T) {
	answers("Local", "localhost")

	err := InitialSetup(filepath.Join(t.TempDir(), "ircsession.yaml"))
	assert.Error(t, err)
}
