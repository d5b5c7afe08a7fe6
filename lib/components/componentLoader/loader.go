// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package sessionComponentLoader

import (
	"github.com/goshuirc/ircsession/lib"

	// Different parts of the project acting independantly
	"github.com/goshuirc/ircsession/lib/components/console"
	"github.com/goshuirc/ircsession/lib/components/control"
)

func Run(manager *ircsession.Manager) {
	sessionComponentConsole.Run(manager)
	sessionComponentControl.Run(manager)
}
