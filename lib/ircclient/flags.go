package ircclient

import "strings"

// Flags are derived properties of a message that depend on session state.
type Flags int

// FlagNone means no flags are set.
const FlagNone Flags = 0

const (
	// FlagOwn means the message was sent by us.
	FlagOwn Flags = 1 << iota
	// FlagIdentified means the sender is identified (identify-msg "+").
	FlagIdentified
	// FlagUnidentified means the sender is not identified (identify-msg "-").
	FlagUnidentified
)

// CapIdentifyMsg is the capability that decorates message bodies with +/-.
const CapIdentifyMsg = "identify-msg"

// FlagSource is the session state flags are resolved against.
type FlagSource interface {
	CurrentNick() string
	CapabilityEnabled(name string) bool
}

// Has returns true if all of want are set.
func (flags Flags) Has(want Flags) bool {
	return flags&want == want
}

func (flags Flags) String() string {
	if flags == FlagNone {
		return "None"
	}
	var names []string
	if flags.Has(FlagOwn) {
		names = append(names, "Own")
	}
	if flags.Has(FlagIdentified) {
		names = append(names, "Identified")
	}
	if flags.Has(FlagUnidentified) {
		names = append(names, "Unidentified")
	}
	return strings.Join(names, "|")
}

// Flags returns the message flags. They are computed against the session on
// first call and cached; later calls return the same value even if the
// session has changed since.
func (msg *Message) Flags() Flags {
	msg.flagsOnce.Do(func() {
		msg.flags = resolveFlags(msg)
	})
	return msg.flags
}

func resolveFlags(msg *Message) Flags {
	flags := FlagNone
	if msg.source == nil {
		return flags
	}

	sender := msg.Sender()
	if sender.IsValid() && sender.Name == msg.source.CurrentNick() {
		flags |= FlagOwn
	}

	// the marker is checked on the raw body, before any CTCP framing is removed
	if (msg.Type == PrivateMT || msg.Type == NoticeMT) && msg.source.CapabilityEnabled(CapIdentifyMsg) {
		body := msg.Param(1)
		if strings.HasPrefix(body, "+") {
			flags |= FlagIdentified
		} else if strings.HasPrefix(body, "-") {
			flags |= FlagUnidentified
		}
	}

	return flags
}
