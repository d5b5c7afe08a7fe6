// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MessageType is the kind of a received message.
type MessageType int

const (
	// UnknownMT is any command we have no specific type for.
	UnknownMT MessageType = iota
	NickMT
	QuitMT
	JoinMT
	PartMT
	TopicMT
	InviteMT
	KickMT
	ModeMT
	PrivateMT
	NoticeMT
	PingMT
	PongMT
	ErrorMT
	NumericMT
	CapabilityMT
)

var messageTypeNames = map[MessageType]string{
	UnknownMT:    "Unknown",
	NickMT:       "Nick",
	QuitMT:       "Quit",
	JoinMT:       "Join",
	PartMT:       "Part",
	TopicMT:      "Topic",
	InviteMT:     "Invite",
	KickMT:       "Kick",
	ModeMT:       "Mode",
	PrivateMT:    "Private",
	NoticeMT:     "Notice",
	PingMT:       "Ping",
	PongMT:       "Pong",
	ErrorMT:      "Error",
	NumericMT:    "Numeric",
	CapabilityMT: "Capability",
}

func (mt MessageType) String() string {
	name, exists := messageTypeNames[mt]
	if !exists {
		return fmt.Sprintf("MessageType(%d)", int(mt))
	}
	return name
}

// commandTypes maps an upper-case command to its message type. Named
// commands always win over the numeric rule.
var commandTypes = map[string]MessageType{
	"NICK":    NickMT,
	"QUIT":    QuitMT,
	"JOIN":    JoinMT,
	"PART":    PartMT,
	"TOPIC":   TopicMT,
	"INVITE":  InviteMT,
	"KICK":    KickMT,
	"MODE":    ModeMT,
	"PRIVMSG": PrivateMT,
	"NOTICE":  NoticeMT,
	"PING":    PingMT,
	"PONG":    PongMT,
	"ERROR":   ErrorMT,
	"CAP":     CapabilityMT,
}

// TypeOf returns the message type for the given command.
func TypeOf(command string) MessageType {
	mt, exists := commandTypes[strings.ToUpper(command)]
	if exists {
		return mt
	}
	if isNumeric(command) {
		return NumericMT
	}
	return UnknownMT
}

func isNumeric(command string) bool {
	if command == "" {
		return false
	}
	for _, char := range command {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}

const (
	ctcpDelim    = "\x01"
	ctcpAction   = "\x01ACTION "
	minCtcpFrame = 2
)

// Message is a typed IRC message. Type says which of the accessors below are
// meaningful; the rest return zero values.
type Message struct {
	Type MessageType
	Record

	// Received is when the line was decoded.
	Received time.Time

	source    FlagSource
	flags     Flags
	flagsOnce sync.Once
}

// Classify wraps rec in a typed message. src is the session flags are
// resolved against.
func Classify(rec Record, src FlagSource) *Message {
	return &Message{
		Type:     TypeOf(rec.Command),
		Record:   rec,
		Received: time.Now(),
		source:   src,
	}
}

// Parse decodes and classifies a single line. It returns nil if the line is
// malformed.
func Parse(line []byte, src FlagSource, fallback *Encoding) *Message {
	rec := Decode(line, fallback)
	if !rec.Valid {
		return nil
	}
	return Classify(rec, src)
}

// Sender returns who sent the message.
func (msg *Message) Sender() Sender {
	return ParseSender(msg.Prefix)
}

// Time returns the server-time tag if present, otherwise when the line was
// received.
func (msg *Message) Time() time.Time {
	if value, exists := msg.Tags["time"]; exists {
		ts, err := time.Parse(time.RFC3339Nano, value)
		if err == nil {
			return ts
		}
	}
	return msg.Received
}

// Nick is the new nick of a Nick message.
func (msg *Message) Nick() string {
	if msg.Type != NickMT {
		return ""
	}
	return msg.Param(0)
}

// Channel is the channel of a Join, Part, Topic, Invite or Kick message.
func (msg *Message) Channel() string {
	switch msg.Type {
	case JoinMT, PartMT, TopicMT, KickMT:
		return msg.Param(0)
	case InviteMT:
		return msg.Param(1)
	}
	return ""
}

// User is the invited or kicked user.
func (msg *Message) User() string {
	switch msg.Type {
	case InviteMT:
		return msg.Param(0)
	case KickMT:
		return msg.Param(1)
	}
	return ""
}

// Reason is the optional reason of a Quit, Part or Kick message.
func (msg *Message) Reason() string {
	switch msg.Type {
	case QuitMT:
		return msg.Param(0)
	case PartMT:
		return msg.Param(1)
	case KickMT:
		return msg.Param(2)
	}
	return ""
}

// Topic is the new channel topic.
func (msg *Message) Topic() string {
	if msg.Type != TopicMT {
		return ""
	}
	return msg.Param(1)
}

// Target is the channel or user a Mode, Private or Notice message is for.
func (msg *Message) Target() string {
	switch msg.Type {
	case ModeMT, PrivateMT, NoticeMT:
		return msg.Param(0)
	}
	return ""
}

// Mode is the mode string of a Mode message.
func (msg *Message) Mode() string {
	if msg.Type != ModeMT {
		return ""
	}
	return msg.Param(1)
}

// Argument is the mode argument, or the Ping/Pong argument.
func (msg *Message) Argument() string {
	switch msg.Type {
	case ModeMT:
		return msg.Param(2)
	case PingMT:
		return msg.Param(0)
	case PongMT:
		return msg.Param(1)
	}
	return ""
}

// ErrorText is the text of an Error message.
func (msg *Message) ErrorText() string {
	if msg.Type != ErrorMT {
		return ""
	}
	return msg.Param(0)
}

// Code is the numeric code, or -1 if this isn't a numeric.
func (msg *Message) Code() int {
	if msg.Type != NumericMT || !isNumeric(msg.Command) {
		return -1
	}
	code, err := strconv.Atoi(msg.Command)
	if err != nil {
		return -1
	}
	return code
}

// SubCommand is the CAP subcommand (LS, LIST, REQ, ACK, NAK, NEW, DEL).
func (msg *Message) SubCommand() string {
	if msg.Type != CapabilityMT {
		return ""
	}
	return strings.ToUpper(msg.Param(1))
}

// Capabilities is the capability list carried in the last parameter. It is
// empty for terse CAP messages with two parameters or fewer.
func (msg *Message) Capabilities() []string {
	if msg.Type != CapabilityMT || len(msg.Params) <= 2 {
		return nil
	}
	return strings.Fields(msg.Params[len(msg.Params)-1])
}

// IsCapContinuation returns true if more CAP lines of this subcommand follow
// (CAP * LS * :caps).
func (msg *Message) IsCapContinuation() bool {
	if msg.Type != CapabilityMT || len(msg.Params) < 2 {
		return false
	}
	if len(msg.Params) > 3 && msg.Params[2] == "*" {
		return true
	}
	return msg.Params[len(msg.Params)-1] == "*"
}

// rawBody is the Private/Notice text with any identify-msg marker removed.
func (msg *Message) rawBody() string {
	body := msg.Param(1)
	if body != "" && msg.Flags()&(FlagIdentified|FlagUnidentified) != 0 {
		body = body[1:]
	}
	return body
}

func isCtcpFramed(body string) bool {
	return len(body) >= minCtcpFrame && strings.HasPrefix(body, ctcpDelim) && strings.HasSuffix(body, ctcpDelim)
}

// IsAction returns true for a CTCP ACTION (/me) Private message.
func (msg *Message) IsAction() bool {
	if msg.Type != PrivateMT {
		return false
	}
	body := msg.rawBody()
	return len(body) > len(ctcpAction) && strings.HasPrefix(body, ctcpAction) && strings.HasSuffix(body, ctcpDelim)
}

// IsRequest returns true for a CTCP request other than ACTION.
func (msg *Message) IsRequest() bool {
	if msg.Type != PrivateMT {
		return false
	}
	return isCtcpFramed(msg.rawBody()) && !msg.IsAction()
}

// IsReply returns true for a CTCP reply Notice.
func (msg *Message) IsReply() bool {
	if msg.Type != NoticeMT {
		return false
	}
	return isCtcpFramed(msg.rawBody())
}

// Body is the user-visible text of a Private or Notice message, with the
// identify-msg marker and CTCP framing removed.
func (msg *Message) Body() string {
	body := msg.rawBody()

	switch msg.Type {
	case PrivateMT:
		if msg.IsAction() {
			return body[len(ctcpAction) : len(body)-1]
		}
		if msg.IsRequest() {
			return body[1 : len(body)-1]
		}
		return body
	case NoticeMT:
		if msg.IsReply() {
			return body[1 : len(body)-1]
		}
		return body
	}
	return ""
}

// IsValid returns true if the message came from a session, has a valid sender
// and carries the parameters its type requires.
func (msg *Message) IsValid() bool {
	if msg.source == nil || !msg.Record.Valid || !msg.Sender().IsValid() {
		return false
	}

	switch msg.Type {
	case NickMT:
		return msg.Nick() != ""
	case JoinMT, PartMT, TopicMT:
		return msg.Channel() != ""
	case InviteMT:
		return msg.User() != "" && msg.Channel() != ""
	case KickMT:
		return msg.Channel() != "" && msg.User() != ""
	case ModeMT:
		return msg.Target() != "" && msg.Mode() != ""
	case PrivateMT, NoticeMT:
		return msg.Target() != "" && msg.Body() != ""
	case ErrorMT:
		return msg.ErrorText() != ""
	case NumericMT:
		return msg.Code() >= 0
	}
	return true
}

func (msg *Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(flags=%s", msg.Type, msg.Flags())
	if sender := msg.Sender(); sender.IsValid() {
		fmt.Fprintf(&b, ", sender=%s", sender.Name)
	}
	if msg.Command != "" {
		fmt.Fprintf(&b, ", command=%s", msg.Command)
	}
	if len(msg.Params) > 0 {
		fmt.Fprintf(&b, ", params=%q", msg.Params)
	}
	b.WriteString(")")
	return b.String()
}
