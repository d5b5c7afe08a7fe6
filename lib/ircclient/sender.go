package ircclient

import "strings"

// Sender is the nick!user@host (or server name) a message came from.
type Sender struct {
	Name string
	User string
	Host string
}

// IsValid returns true if the sender has a name.
func (sender Sender) IsValid() bool {
	return sender.Name != ""
}

// Prefix rebuilds the prefix the sender was parsed from.
func (sender Sender) Prefix() string {
	prefix := sender.Name
	if sender.User != "" {
		prefix += "!" + sender.User
	}
	if sender.Host != "" {
		prefix += "@" + sender.Host
	}
	return prefix
}

// ParseSender splits a message prefix into its parts.
func ParseSender(prefix string) Sender {
	name, user, host := SplitMask(prefix)
	return Sender{
		Name: name,
		User: user,
		Host: host,
	}
}

// SplitMask splits nick!user@host into its three parts. Any part may be empty.
func SplitMask(mask string) (string, string, string) {
	nick := ""
	username := ""
	host := ""

	pos := strings.Index(mask, "!")
	if pos > -1 {
		nick = mask[0:pos]
		mask = mask[pos+1:]
	} else if pos = strings.Index(mask, "@"); pos > -1 {
		// nick@host, no user
		return mask[0:pos], "", mask[pos+1:]
	} else {
		nick = mask
		mask = ""
	}

	pos = strings.Index(mask, "@")
	if pos > -1 {
		username = mask[0:pos]
		host = mask[pos+1:]
	} else {
		username = mask
	}

	return nick, username, host
}
