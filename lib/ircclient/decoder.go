// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"bytes"

	"github.com/ergochat/irc-go/ircmsg"
)

// Record is a single decoded IRC line. It carries no message semantics.
type Record struct {
	Prefix  string
	Command string
	Params  []string
	Tags    map[string]string

	// Valid is true iff a command token could be extracted.
	Valid bool
	// Raw holds the line as received, without the line terminator.
	Raw []byte
	// Encoding names the codec the text was decoded with.
	Encoding string
}

// Param returns the parameter at idx, or "" if there is none.
func (rec *Record) Param(idx int) string {
	if idx < 0 || len(rec.Params)-1 < idx {
		return ""
	}
	return rec.Params[idx]
}

// Decode splits a raw line into prefix, command and parameters. Lines that
// are not valid UTF-8 are decoded with fallback (ISO-8859-15 when nil).
// Decode never fails; malformed lines come back with Valid set to false.
// A line containing a NUL byte is malformed even if it has a command.
func Decode(line []byte, fallback *Encoding) Record {
	line = bytes.TrimRight(line, "\r\n")
	raw := make([]byte, len(line))
	copy(raw, line)

	rec := Record{
		Raw: raw,
	}

	text, encName := decodeText(raw, fallback)
	rec.Encoding = encName

	message, err := ircmsg.ParseLine(text)
	if err != nil || message.Command == "" {
		return rec
	}

	rec.Prefix = message.Source
	rec.Command = message.Command
	rec.Params = message.Params
	if rec.Params == nil {
		rec.Params = []string{}
	}
	if tags := message.AllTags(); len(tags) > 0 {
		rec.Tags = tags
	}
	rec.Valid = true

	return rec
}
