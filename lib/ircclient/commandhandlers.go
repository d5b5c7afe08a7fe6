// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"strings"
)

// serverCommand is how the machine reacts to one kind of message.
type serverCommand struct {
	handler   func(m *Machine, msg *Message, hooks Hooks, step *Step)
	minParams int
}

// Run runs this command with the given machine/message.
func (cmd *serverCommand) Run(m *Machine, msg *Message, hooks Hooks, step *Step) {
	if len(msg.Params) < cmd.minParams {
		m.log.Debug("Not enough parameters sent from the server", "line", string(msg.Raw))
		return
	}
	cmd.handler(m, msg, hooks, step)
}

// serverCommands holds the handlers for named commands, numericCommands the
// handlers for numeric replies.
var (
	serverCommands  map[MessageType]serverCommand
	numericCommands map[int]serverCommand
)

func init() {
	serverCommands = make(map[MessageType]serverCommand)
	numericCommands = make(map[int]serverCommand)
	loadServerCommands()
}

func loadServerCommands() {
	numericCommands[RPL_WELCOME] = serverCommand{
		minParams: 1,
		handler: func(m *Machine, msg *Message, hooks Hooks, step *Step) {
			m.nick = msg.Params[0]
			m.nickAttempts = 0
			m.setState(Connected, step)
		},
	}

	numericCommands[RPL_ISUPPORT] = serverCommand{
		minParams: 2,
		handler: func(m *Machine, msg *Message, hooks Hooks, step *Step) {
			for _, item := range msg.Params[1:] {
				// the trailing "are supported by this server"
				if item == "" || strings.Contains(item, " ") {
					continue
				}

				if strings.HasPrefix(item, "-") {
					delete(m.info, item[1:])
					continue
				}

				parts := strings.SplitN(item, "=", 2)
				if len(parts) == 1 {
					m.info[parts[0]] = ""
				} else {
					m.info[parts[0]] = parts[1]
				}
			}

			step.emit(Event{Kind: InfoEvent, Info: m.Info()})
		},
	}

	numericCommands[ERR_NICKNAMEINUSE] = serverCommand{
		minParams: 0,
		handler: func(m *Machine, msg *Message, hooks Hooks, step *Step) {
			if m.IsConnected() {
				return
			}

			m.nickAttempts++
			if m.nickAttempts == 1 && m.altNick != "" && m.altNick != m.nick {
				m.nick = m.altNick
			} else {
				m.nick = m.nick + "_"
			}
			step.send("NICK %s", m.nick)
		},
	}

	serverCommands[NickMT] = serverCommand{
		minParams: 1,
		handler: func(m *Machine, msg *Message, hooks Hooks, step *Step) {
			// If our nick just changed, update ourselves
			if msg.Flags().Has(FlagOwn) {
				m.nick = msg.Nick()
			}
		},
	}

	serverCommands[PingMT] = serverCommand{
		minParams: 0,
		handler: func(m *Machine, msg *Message, hooks Hooks, step *Step) {
			step.send("PONG :%s", msg.Argument())
		},
	}

	serverCommands[PrivateMT] = serverCommand{
		minParams: 2,
		handler: func(m *Machine, msg *Message, hooks Hooks, step *Step) {
			if !msg.IsRequest() {
				return
			}

			sender := msg.Sender()
			if !sender.IsValid() {
				return
			}

			reply := ""
			if hooks.CTCPReply != nil {
				reply = hooks.CTCPReply(msg)
			} else {
				reply = DefaultCTCPReply(msg)
			}

			if reply != "" {
				step.send("NOTICE %s :\x01%s\x01", sender.Name, reply)
			}
		},
	}

	serverCommands[CapabilityMT] = serverCommand{
		minParams: 2,
		handler: func(m *Machine, msg *Message, hooks Hooks, step *Step) {
			switch msg.SubCommand() {
			case CapLS:
				m.available.Apply(msg.Capabilities()...)

				if m.IsConnected() || msg.IsCapContinuation() {
					return
				}

				var request []string
				if hooks.Capabilities != nil {
					for _, name := range hooks.Capabilities(m.available.Names()) {
						if name = strings.TrimSpace(name); name != "" {
							request = append(request, name)
						}
					}
				}

				if len(request) > 0 {
					step.send("CAP REQ :%s", strings.Join(request, " "))
				} else {
					step.send("CAP END")
				}

			case CapAck:
				m.active.Apply(msg.Capabilities()...)
				if !m.IsConnected() {
					step.send("CAP END")
				}

			case CapNak:
				if !m.IsConnected() {
					step.send("CAP END")
				}

			case CapNew:
				m.available.Apply(msg.Capabilities()...)

			case CapDel:
				m.available.Remove(msg.Capabilities()...)
				m.active.Remove(msg.Capabilities()...)
			}
		},
	}
}
