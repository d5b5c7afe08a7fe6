// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package ircsession

import (
	"fmt"
)

const (
	// SemVer is the semantic version of ircsession.
	SemVer = "0.1.0-unreleased"
)

var (
	// Ver is the full version of ircsession, used in CTCP VERSION replies.
	Ver = fmt.Sprintf("ircsession-%s", SemVer)
)
