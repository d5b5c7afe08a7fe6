// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/docopt/docopt-go"
	"github.com/goshuirc/ircsession/lib"
	"github.com/goshuirc/ircsession/lib/ircclient"
	"github.com/goshuirc/ircsession/lib/setup"

	// Different parts of the project acting independantly
	"github.com/goshuirc/ircsession/lib/components/componentLoader"
	"github.com/goshuirc/ircsession/lib/components/control"
)

func main() {
	usage := `ircsession.

ircsession is a terminal IRC client built around a single protocol session.

Usage:
	ircsession init [--conf <filename>]
	ircsession connect <network> [--conf <filename>] [--debug]
	ircsession encodings
	ircsession -h | --help
	ircsession --version

Options:
	--conf <filename>  Configuration file to use [default: ircsession.yaml].
	--debug            Log every line sent and received.
	-h --help          Show this screen.
	--version          Show version.`

	arguments, _ := docopt.ParseArgs(usage, nil, ircsession.SemVer)

	if arguments["encodings"].(bool) {
		for _, name := range ircclient.SupportedEncodings() {
			fmt.Println(name)
		}
		return
	}

	configfile := arguments["--conf"].(string)

	if arguments["init"].(bool) {
		err := ircsetup.InitialSetup(configfile)
		if err != nil {
			ircsetup.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	config, err := ircsession.LoadConfig(configfile)
	if err != nil {
		log.Fatal("Config file did not load successfully: ", err.Error())
	}

	level := slog.LevelInfo
	if arguments["--debug"].(bool) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ircclient.Version = ircsession.Ver

	manager, err := ircsession.NewManager(config, arguments["<network>"].(string), logger)
	if err != nil {
		log.Fatal(err.Error())
	}
	manager.PasswordPrompt = ircsetup.QueryNoEcho

	fmt.Println("Starting", ircsetup.CbCyan("ircsession"), "for", ircsetup.CbCyan(manager.Network.Name))

	// Start the different components
	sessionComponentLoader.Run(manager)

	// stdin is free for commands once any password prompt is over
	var commandsOnce sync.Once
	manager.Bus.Register(ircsession.HookStateName, func(hook interface{}) {
		if hook.(*ircsession.HookState).State == ircclient.Connected {
			commandsOnce.Do(func() { go readCommands(manager) })
		}
	})

	err = manager.Run(context.Background())
	if err != nil {
		log.Fatal(err.Error())
	}
}

// readCommands runs the lines typed on stdin as control commands.
func readCommands(manager *ircsession.Manager) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := sessionComponentControl.Command(manager, scanner.Text()); err != nil {
			ircsetup.Error(err.Error())
		}
	}
}
