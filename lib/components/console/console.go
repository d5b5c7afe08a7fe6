// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package sessionComponentConsole

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ergochat/irc-go/ircfmt"
	"github.com/fatih/color"

	"github.com/goshuirc/ircsession/lib"
	"github.com/goshuirc/ircsession/lib/ircclient"
)

var (
	cTime   = color.New(color.FgHiBlack).SprintfFunc()
	cNick   = color.New(color.Bold, color.FgHiCyan).SprintfFunc()
	cOwn    = color.New(color.Bold, color.FgHiYellow).SprintfFunc()
	cEvent  = color.New(color.FgHiGreen).SprintfFunc()
	cNotice = color.New(color.FgHiMagenta).SprintfFunc()
	cError  = color.New(color.Bold, color.FgHiRed).SprintfFunc()
)

// TimeFormat is the timestamp layout printed before every line.
var TimeFormat = "15:04:05"

func Run(manager *ircsession.Manager) {
	out := manager.Out

	manager.Bus.Register(ircsession.HookMessageName, func(hook interface{}) {
		event := hook.(*ircsession.HookMessage)
		if line := FormatMessage(event.Message); line != "" {
			fmt.Fprintln(out, line)
		}
	})

	manager.Bus.Register(ircsession.HookStateName, func(hook interface{}) {
		event := hook.(*ircsession.HookState)
		fmt.Fprintln(out, cEvent("-- %s %s --", event.Network, event.State))
	})

	manager.Bus.Register(ircsession.HookSocketErrorName, func(hook interface{}) {
		event := hook.(*ircsession.HookSocketError)
		fmt.Fprintln(out, cError("!! %s: %s", event.Network, event.Err))
	})
}

// clean makes remote text safe to print: IRC formatting codes are removed
// and so is every other control character, terminal escapes included.
func clean(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, ircfmt.Strip(text))
}

func cleanJoin(params []string) string {
	return clean(strings.Join(params, " "))
}

func sender(msg *ircclient.Message) string {
	return clean(msg.Sender().Name)
}

func nick(msg *ircclient.Message) string {
	name := sender(msg)
	if msg.Flags().Has(ircclient.FlagOwn) {
		return cOwn("%s", name)
	}
	return cNick("%s", name)
}

// FormatMessage returns the line to print for msg, or "" if the message is
// not shown. Remote text is printed without formatting or control codes.
func FormatMessage(msg *ircclient.Message) string {
	if !msg.IsValid() {
		return ""
	}

	line := ""

	switch msg.Type {
	case ircclient.PrivateMT:
		switch {
		case msg.IsAction():
			line = fmt.Sprintf("[%s] * %s %s", clean(msg.Target()), nick(msg), clean(msg.Body()))
		case msg.IsRequest():
			line = cNotice("%s requested CTCP %s", sender(msg), clean(msg.Body()))
		default:
			line = fmt.Sprintf("[%s] <%s> %s", clean(msg.Target()), nick(msg), clean(msg.Body()))
		}
	case ircclient.NoticeMT:
		if msg.IsReply() {
			line = cNotice("CTCP reply from %s: %s", sender(msg), clean(msg.Body()))
		} else {
			line = cNotice("-%s- %s", sender(msg), clean(msg.Body()))
		}
	case ircclient.JoinMT:
		line = cEvent("* %s has joined %s", sender(msg), clean(msg.Channel()))
	case ircclient.PartMT:
		line = cEvent("* %s has left %s%s", sender(msg), clean(msg.Channel()), reason(msg.Reason()))
	case ircclient.QuitMT:
		line = cEvent("* %s has quit%s", sender(msg), reason(msg.Reason()))
	case ircclient.KickMT:
		line = cEvent("* %s has been kicked from %s by %s%s", clean(msg.User()), clean(msg.Channel()), sender(msg), reason(msg.Reason()))
	case ircclient.NickMT:
		line = cEvent("* %s is now known as %s", sender(msg), clean(msg.Nick()))
	case ircclient.TopicMT:
		line = cEvent("* %s changed the topic of %s to: %s", sender(msg), clean(msg.Channel()), clean(msg.Topic()))
	case ircclient.InviteMT:
		line = cEvent("* %s invited %s to %s", sender(msg), clean(msg.User()), clean(msg.Channel()))
	case ircclient.ModeMT:
		line = cEvent("* %s sets mode %s", sender(msg), cleanJoin(msg.Params))
	case ircclient.ErrorMT:
		line = cError("! %s", clean(msg.ErrorText()))
	case ircclient.NumericMT:
		if len(msg.Params) > 1 {
			line = fmt.Sprintf("%03d %s", msg.Code(), cleanJoin(msg.Params[1:]))
		}
	case ircclient.UnknownMT:
		line = fmt.Sprintf("%s %s", clean(msg.Command), cleanJoin(msg.Params))
	}

	if line != "" {
		line = fmt.Sprintf("%s %s", cTime("[%s]", msg.Time().Format(TimeFormat)), line)
	}
	return line
}

func reason(text string) string {
	text = clean(text)
	if text == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", text)
}
