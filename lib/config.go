// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package ircsession

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v2"

	"github.com/goshuirc/ircsession/lib/ircclient"
)

const (
	// DefaultMaxLineLength is the default receive line bound, in bytefmt notation.
	DefaultMaxLineLength = "16KiB"
	// DefaultSendRate is the default outgoing line rate.
	DefaultSendRate = "2/s"
	// DefaultSendBurst is how many lines may be sent back to back.
	DefaultSendBurst = 5

	defaultTLSPort = 6697
)

var (
	errNoNetworks   = errors.New("No networks are defined")
	errNoHost       = errors.New("Network has no host")
	errBadSendRate  = errors.New("Send rate must look like 2/s or 10/5s")
	errBadWebSocket = errors.New("WebSocket URL must start with ws:// or wss://")
)

// NetworkConfig is the configuration of a single network.
type NetworkConfig struct {
	// Name is the casefolded map key this network was defined under.
	Name string `yaml:"-"`

	Host          string
	Port          int
	TLS           bool     `yaml:"tls"`
	WebSocket     string   `yaml:"websocket,omitempty"`
	VerifyTLS     *bool    `yaml:"verify-tls,omitempty"`
	Nick          string
	AltNick       string   `yaml:"alt-nick,omitempty"`
	User          string   `yaml:"user,omitempty"`
	Real          string   `yaml:"real,omitempty"`
	Password      string   `yaml:"password,omitempty"`
	AskPassword   bool     `yaml:"ask-password,omitempty"`
	Encoding      string   `yaml:"encoding,omitempty"`
	Capabilities  []string `yaml:"capabilities,omitempty"`
	MaxLineLength string   `yaml:"max-line-length,omitempty"`
	SendRate      string   `yaml:"send-rate,omitempty"`
	SendBurst     int      `yaml:"send-burst,omitempty"`

	maxLineBytes int
	sendLimit    rate.Limit
}

// Config defines a configuration file for ircsession
type Config struct {
	Client struct {
		Networks map[string]*NetworkConfig
		Metrics  string `yaml:"metrics,omitempty"`
	}
}

// TLSConfig returns the TLS settings to dial this network with, or nil when
// TLS is off.
func (conf *NetworkConfig) TLSConfig() *tls.Config {
	if !conf.TLS {
		return nil
	}

	config := &tls.Config{
		ServerName: conf.Host,
	}
	if conf.VerifyTLS != nil && !*conf.VerifyTLS {
		config.InsecureSkipVerify = true
	}
	return config
}

// MaxLineBytes returns the receive line bound in bytes.
func (conf *NetworkConfig) MaxLineBytes() int {
	return conf.maxLineBytes
}

// SendLimit returns the outgoing line rate.
func (conf *NetworkConfig) SendLimit() rate.Limit {
	return conf.sendLimit
}

// ParseSendRate parses a rate such as "2/s", "10/5s" or "30/m". An empty
// string, "0" or "unlimited" mean no limit.
func ParseSendRate(value string) (rate.Limit, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" || value == "0" || value == "unlimited" {
		return rate.Inf, nil
	}

	parts := strings.SplitN(value, "/", 2)
	if len(parts) != 2 {
		return 0, errBadSendRate
	}

	count, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || count <= 0 {
		return 0, errBadSendRate
	}

	per := parts[1]
	if per != "" && (per[0] < '0' || per[0] > '9') {
		per = "1" + per
	}
	interval, err := time.ParseDuration(per)
	if err != nil || interval <= 0 {
		return 0, errBadSendRate
	}

	return rate.Limit(count / interval.Seconds()), nil
}

// normalize checks the network and fills in defaults.
func (conf *NetworkConfig) normalize() error {
	conf.Host = strings.TrimSpace(conf.Host)

	if conf.WebSocket != "" {
		endpoint, err := url.Parse(conf.WebSocket)
		if err != nil || (endpoint.Scheme != "ws" && endpoint.Scheme != "wss") || endpoint.Host == "" {
			return fmt.Errorf("%w: %q", errBadWebSocket, conf.WebSocket)
		}
		if conf.Host == "" {
			conf.Host = endpoint.Hostname()
		}
		conf.TLS = endpoint.Scheme == "wss"
	}

	if conf.Host == "" {
		return errNoHost
	}

	if conf.Port == 0 {
		if conf.TLS {
			conf.Port = defaultTLSPort
		} else {
			conf.Port = ircclient.DefaultPort
		}
	}

	nick, err := IrcName(conf.Nick, false)
	if err != nil {
		return fmt.Errorf("Nick %q is invalid: %w", conf.Nick, err)
	}
	conf.Nick = nick

	if conf.AltNick != "" {
		altNick, err := IrcName(conf.AltNick, false)
		if err != nil {
			return fmt.Errorf("Alt nick %q is invalid: %w", conf.AltNick, err)
		}
		conf.AltNick = altNick
	}

	if conf.User == "" {
		conf.User = conf.Nick
	}
	user, err := IrcName(conf.User, false)
	if err != nil {
		return fmt.Errorf("User %q is invalid: %w", conf.User, err)
	}
	conf.User = user

	if strings.TrimSpace(conf.Real) == "" {
		conf.Real = conf.Nick
	}

	if conf.Encoding == "" {
		conf.Encoding = ircclient.DefaultEncoding
	}
	encoding, err := ircclient.LookupEncoding(conf.Encoding)
	if err != nil {
		return fmt.Errorf("%w: %q", err, conf.Encoding)
	}
	conf.Encoding = encoding.Name

	if conf.MaxLineLength == "" {
		conf.MaxLineLength = DefaultMaxLineLength
	}
	maxLineBytes, err := bytefmt.ToBytes(conf.MaxLineLength)
	if err != nil {
		return fmt.Errorf("Max line length %q is invalid: %w", conf.MaxLineLength, err)
	}
	conf.maxLineBytes = int(maxLineBytes)

	if conf.SendRate == "" {
		conf.SendRate = DefaultSendRate
	}
	conf.sendLimit, err = ParseSendRate(conf.SendRate)
	if err != nil {
		return fmt.Errorf("%w: %q", err, conf.SendRate)
	}
	if conf.SendBurst <= 0 {
		conf.SendBurst = DefaultSendBurst
	}

	return nil
}

// Network returns the named network.
func (conf *Config) Network(name string) (*NetworkConfig, error) {
	key, err := NetworkKey(name)
	if err != nil {
		return nil, fmt.Errorf("Network name %q is invalid: %w", name, err)
	}

	network, exists := conf.Client.Networks[key]
	if !exists {
		return nil, fmt.Errorf("Network %q is not defined", name)
	}
	return network, nil
}

// NetworkNames returns the sorted names of all defined networks.
func (conf *Config) NetworkNames() []string {
	var names []string
	for name := range conf.Client.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseConfig parses and checks a configuration document.
func ParseConfig(data []byte) (*Config, error) {
	var config *Config
	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	if config == nil || len(config.Client.Networks) == 0 {
		return nil, errNoNetworks
	}

	networks := make(map[string]*NetworkConfig, len(config.Client.Networks))
	for name, network := range config.Client.Networks {
		if network == nil {
			return nil, fmt.Errorf("Network %q: %w", name, errNoHost)
		}

		key, err := NetworkKey(name)
		if err != nil {
			return nil, fmt.Errorf("Network name %q is invalid: %w", name, err)
		}
		if _, exists := networks[key]; exists {
			return nil, fmt.Errorf("Network %q is defined more than once", key)
		}

		if err = network.normalize(); err != nil {
			return nil, fmt.Errorf("Network %q: %w", name, err)
		}
		network.Name = key
		networks[key] = network
	}
	config.Client.Networks = networks

	return config, nil
}

// LoadConfig returns a Config instance
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// Marshal renders the configuration as YAML.
func (conf *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(conf)
}
