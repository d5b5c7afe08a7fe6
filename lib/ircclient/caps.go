// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"sort"
	"strings"
)

// CapSet holds capability names along with any value advertised for them
// (CAP LS 302 sends "sasl=PLAIN,EXTERNAL").
type CapSet struct {
	caps map[string]string
}

// NewCapSet returns a set holding the given tokens, merged in order.
func NewCapSet(tokens ...string) *CapSet {
	set := &CapSet{
		caps: make(map[string]string),
	}
	set.Apply(tokens...)
	return set
}

// Apply merges tokens into the set, in order.
//
// A token starting with "-" or "=" removes the capability, one starting
// with "~" adds it without the marker, and anything else adds it as is.
func (set *CapSet) Apply(tokens ...string) {
	if set.caps == nil {
		set.caps = make(map[string]string)
	}

	for _, token := range tokens {
		if token == "" {
			continue
		}

		switch token[0] {
		case '-', '=':
			name, _ := splitCap(token[1:])
			delete(set.caps, name)
		case '~':
			name, value := splitCap(token[1:])
			if name != "" {
				set.caps[name] = value
			}
		default:
			name, value := splitCap(token)
			set.caps[name] = value
		}
	}
}

// Remove deletes the named capabilities.
func (set *CapSet) Remove(names ...string) {
	for _, name := range names {
		name, _ = splitCap(name)
		delete(set.caps, name)
	}
}

// Has checks if a capability is in the set.
func (set *CapSet) Has(name string) bool {
	_, exists := set.caps[name]
	return exists
}

// Value returns the value advertised for name, if any.
func (set *CapSet) Value(name string) string {
	return set.caps[name]
}

// Names returns the sorted capability names.
func (set *CapSet) Names() []string {
	names := make([]string, 0, len(set.caps))
	for name := range set.caps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of capabilities in the set.
func (set *CapSet) Len() int {
	return len(set.caps)
}

// Clear empties the set.
func (set *CapSet) Clear() {
	set.caps = make(map[string]string)
}

// Clone returns an independent copy of the set.
func (set *CapSet) Clone() *CapSet {
	clone := &CapSet{
		caps: make(map[string]string, len(set.caps)),
	}
	for name, value := range set.caps {
		clone.caps[name] = value
	}
	return clone
}

// String returns the capabilities as they would be sent in a CAP line.
func (set *CapSet) String() string {
	var tokens []string
	for _, name := range set.Names() {
		if value := set.caps[name]; value != "" {
			tokens = append(tokens, name+"="+value)
		} else {
			tokens = append(tokens, name)
		}
	}
	return strings.Join(tokens, " ")
}

func splitCap(token string) (string, string) {
	parts := strings.SplitN(token, "=", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
