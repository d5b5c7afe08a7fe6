// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package ircsetup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/fatih/color"
	"github.com/goshuirc/ircsession/lib"
	"github.com/goshuirc/ircsession/lib/ircclient"
)

var (
	CbBlue   = color.New(color.Bold, color.FgHiBlue).SprintfFunc()
	CbCyan   = color.New(color.Bold, color.FgHiCyan).SprintfFunc()
	CbYellow = color.New(color.Bold, color.FgHiYellow).SprintfFunc()
	CbRed    = color.New(color.Bold, color.FgHiRed).SprintfFunc()
)

// Section displays a section to the user
func Section(text string) {
	Note("")
	fmt.Println(CbBlue("["), CbYellow("**"), CbBlue("]"), "--", text, "--")
	Note("")
}

// Note displays a note to the user
func Note(text string) {
	fmt.Println(CbBlue("["), CbYellow("**"), CbBlue("]"), text)
}

// in is where answers are read from
var in = bufio.NewReader(os.Stdin)

// SetInput makes the queries read answers from r instead of stdin
func SetInput(r io.Reader) {
	in = bufio.NewReader(r)
}

// Query asks for a value from the user
func Query(prompt string) (string, error) {
	fmt.Print(CbBlue("[ "), CbYellow("??"), CbBlue(" ] "), prompt)

	response, err := in.ReadString('\n')
	if err == io.EOF && response != "" {
		err = nil
	}
	return strings.TrimRight(response, "\r\n"), err
}

// QueryNoEcho asks for a value from the user without echoing what they type
func QueryNoEcho(prompt string) (string, error) {
	if !terminal.IsTerminal(int(syscall.Stdin)) {
		return Query(prompt)
	}

	fmt.Print(CbBlue("[ "), CbYellow("??"), CbBlue(" ] "), prompt)

	response, err := terminal.ReadPassword(int(syscall.Stdin))
	fmt.Print("\n")
	return string(response), err
}

// QueryDefault asks for a value, falling back to a default
func QueryDefault(prompt string, defaultValue string) (string, error) {
	response, err := Query(prompt)

	if err != nil {
		return "", err
	}

	if len(strings.TrimSpace(response)) < 1 {
		return defaultValue, nil
	}
	return response, nil
}

// QueryBool asks for a true/false value from the user
func QueryBool(prompt string) (bool, error) {
	for {
		response, err := Query(prompt)
		if err != nil {
			return false, err
		}

		response = strings.ToLower(strings.TrimSpace(response))
		if len(response) < 1 {
			continue
		}

		// check for yes/true/1 or no/false/0
		if strings.Contains("yt1", string(response[0])) {
			return true, nil
		} else if strings.Contains("nf0", string(response[0])) {
			return false, nil
		}
	}
}

// Warn warns the user about something
func Warn(text string) {
	fmt.Println(CbBlue("["), CbRed("**"), CbBlue("]"), text)
}

// Error shows the user an error
func Error(text string) {
	fmt.Println(CbBlue("["), CbRed("!!"), CbBlue("]"), CbRed(text))
}

// queryIrcName asks until the answer is a usable nick or user name
func queryIrcName(prompt string, defaultValue string) (string, error) {
	for {
		response, err := QueryDefault(fmt.Sprintf("%s [%s]: ", prompt, defaultValue), defaultValue)
		if err != nil {
			return "", err
		}

		name, err := ircsession.IrcName(response, false)
		if err == nil {
			return name, nil
		}
		Error(err.Error())
	}
}

// QueryNetwork asks for the settings of a single network
func QueryNetwork() (*ircsession.NetworkConfig, error) {
	var err error
	network := &ircsession.NetworkConfig{}

	for {
		netName, err := Query("Name (e.g. libera): ")
		if err != nil {
			return nil, err
		}

		network.Name, err = ircsession.NetworkKey(netName)
		if err == nil {
			Note(fmt.Sprintf("Network name is %s. Will be stored as %s.", netName, network.Name))
			break
		}
		Error(err.Error())
	}

	for {
		network.Host, err = Query("Server host (e.g. irc.libera.chat): ")
		if err != nil {
			return nil, err
		}

		network.Host = strings.TrimSpace(network.Host)
		if len(network.Host) < 1 {
			Error("Hostname must have at least one character!")
			continue
		}

		break
	}

	network.TLS, err = QueryBool("Server uses SSL/TLS? (y/n) ")
	if err != nil {
		return nil, err
	}

	defaultPort := ircclient.DefaultPort
	if network.TLS {
		verify, err := QueryBool("Verify SSL/TLS certificates? (y/n) ")
		if err != nil {
			return nil, err
		}
		network.VerifyTLS = &verify
		defaultPort = 6697
	}

	for {
		portString, err := QueryDefault(fmt.Sprintf("Server Port [%d]: ", defaultPort), strconv.Itoa(defaultPort))
		if err != nil {
			return nil, err
		}

		network.Port, err = strconv.Atoi(strings.TrimSpace(portString))
		if err != nil {
			Error(err.Error())
			continue
		}

		if (network.Port < 1) || (network.Port > 65535) {
			Error("Port number can be 1 - 65535")
			continue
		}

		break
	}

	network.Nick, err = queryIrcName("Enter Nickname", "ircsession")
	if err != nil {
		return nil, err
	}

	network.AltNick, err = queryIrcName("Enter Fallback Nickname", network.Nick+"_")
	if err != nil {
		return nil, err
	}

	network.User, err = queryIrcName("Enter Username", network.Nick)
	if err != nil {
		return nil, err
	}

	network.Real, err = QueryDefault(fmt.Sprintf("Enter Realname [%s]: ", network.Nick), network.Nick)
	if err != nil {
		return nil, err
	}

	network.AskPassword, err = QueryBool("Ask for the server password on every connect? (y/n) ")
	if err != nil {
		return nil, err
	}
	if !network.AskPassword {
		network.Password, err = QueryNoEcho("Server connection password (probably empty): ")
		if err != nil {
			return nil, err
		}
	}

	for {
		encoding, err := QueryDefault(fmt.Sprintf("Fallback encoding [%s]: ", ircclient.DefaultEncoding), ircclient.DefaultEncoding)
		if err != nil {
			return nil, err
		}

		enc, err := ircclient.LookupEncoding(encoding)
		if err != nil {
			Error(fmt.Sprintf("%s is not supported, see the encodings command", encoding))
			continue
		}
		network.Encoding = enc.Name
		break
	}

	defaultCaps := "multi-prefix server-time identify-msg"
	caps, err := QueryDefault(fmt.Sprintf("Capabilities to request [%s]: ", defaultCaps), defaultCaps)
	if err != nil {
		return nil, err
	}
	network.Capabilities = strings.Fields(caps)

	return network, nil
}

// InitialSetup asks for the networks to connect to and writes them to filename
func InitialSetup(filename string) error {
	fmt.Println(CbBlue("["), CbCyan("~~"), CbBlue("]"), "Welcome to", CbCyan("ircsession"))
	Note("We will now run through basic setup.")

	config := &ircsession.Config{}
	config.Client.Networks = make(map[string]*ircsession.NetworkConfig)

	Section("Network Setup")

	for {
		network, err := QueryNetwork()
		if err != nil {
			return err
		}
		if _, exists := config.Client.Networks[network.Name]; exists {
			Warn(fmt.Sprintf("Replacing the existing network %s", network.Name))
		}
		config.Client.Networks[network.Name] = network

		another, err := QueryBool("Set up another network? (y/n) ")
		if err != nil {
			return err
		}
		if !another {
			break
		}
	}

	Section("Metrics")

	serveMetrics, err := QueryBool("Serve Prometheus metrics? (y/n) ")
	if err != nil {
		return err
	}
	if serveMetrics {
		config.Client.Metrics, err = QueryDefault("Metrics address [127.0.0.1:9120]: ", "127.0.0.1:9120")
		if err != nil {
			return err
		}
	}

	data, err := config.Marshal()
	if err != nil {
		return err
	}

	// make sure what we write can be loaded back
	if _, err = ircsession.ParseConfig(data); err != nil {
		return fmt.Errorf("Generated configuration is invalid: %w", err)
	}

	if err = os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("Could not write %s: %w", filename, err)
	}

	fmt.Println(CbBlue("["), CbCyan("~~"), CbBlue("]"), CbCyan("ircsession"), "is now configured!")
	Note(fmt.Sprintf("You can now connect with: ircsession connect <network> --conf %s", filename))
	return nil
}
