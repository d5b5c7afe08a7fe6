package sessionComponentControl

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/goshuirc/ircsession/lib"
	"github.com/goshuirc/ircsession/lib/ircclient"
)

var errNeedParam = errors.New("Not enough parameters")

type command func(manager *ircsession.Manager, params []string) error

var commands = map[string]command{
	"info":     commandInfo,
	"caps":     commandCaps,
	"nick":     commandNick,
	"encoding": commandEncoding,
}

func Run(manager *ircsession.Manager) {
	manager.Bus.Register(ircsession.HookMessageName, func(hook interface{}) {
		event := hook.(*ircsession.HookMessage)

		// registration is over once the MOTD is done
		switch event.Message.Code() {
		case ircclient.RPL_ENDOFMOTD, ircclient.ERR_NOMOTD:
			commandInfo(manager, nil)
			commandCaps(manager, nil)
		}
	})
}

// Command runs a line typed by the user. "/name params" runs one of the
// control commands; any other "/LINE" is sent to the server as is.
func Command(manager *ircsession.Manager, input string) error {
	input = strings.TrimLeftFunc(strings.TrimRight(input, "\r\n"), unicode.IsSpace)
	if strings.TrimSpace(input) == "" {
		return nil
	}
	if !strings.HasPrefix(input, "/") {
		return errors.New("Commands start with /, use /raw to send a line")
	}

	line := input[1:]
	name, rest := line, ""
	if end := strings.IndexFunc(line, unicode.IsSpace); end >= 0 {
		name, rest = line[:end], line[end+1:]
	}
	if name == "" {
		return nil
	}

	// the rest of a raw line is sent untouched
	if strings.EqualFold(name, "raw") {
		return commandRaw(manager, rest)
	}

	cmd, exists := commands[strings.ToLower(name)]
	if !exists {
		return manager.Session.SendRaw(line)
	}
	return cmd(manager, strings.Fields(rest))
}

// InfoTable lists the ISUPPORT values, sorted by key.
func InfoTable(info map[string]string) *Table {
	table := NewTable()
	table.SetHeader([]string{"Key", "Value"})

	keys := make([]string, 0, len(info))
	for key := range info {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		table.Append([]string{key, info[key]})
	}
	return table
}

// CapsTable lists every capability the server offers and whether it is enabled.
func CapsTable(available, active []string) *Table {
	table := NewTable()
	table.SetHeader([]string{"Capability", "Enabled"})

	enabled := ircclient.NewCapSet(active...)
	all := ircclient.NewCapSet(available...)
	all.Apply(active...)

	for _, name := range all.Names() {
		state := "No"
		if enabled.Has(name) {
			state = "Yes"
		}
		table.Append([]string{name, state})
	}
	return table
}

func commandInfo(manager *ircsession.Manager, params []string) error {
	InfoTable(manager.Session.Info()).RenderTo(manager.Out, "ISUPPORT")
	return nil
}

func commandCaps(manager *ircsession.Manager, params []string) error {
	session := manager.Session
	CapsTable(session.AvailableCapabilities(), session.ActiveCapabilities()).RenderTo(manager.Out, "Capabilities")
	return nil
}

func commandNick(manager *ircsession.Manager, params []string) error {
	if len(params) < 1 {
		return errNeedParam
	}
	manager.Session.SetNickName(params[0])
	return nil
}

func commandEncoding(manager *ircsession.Manager, params []string) error {
	if len(params) < 1 {
		return errNeedParam
	}
	return manager.Session.SetEncoding(params[0])
}

func commandRaw(manager *ircsession.Manager, line string) error {
	if strings.TrimSpace(line) == "" {
		return errNeedParam
	}
	return manager.Session.SendRaw(line)
}
