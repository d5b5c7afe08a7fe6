// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package sessionComponentControl

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

/**
 * Table writer outputs to a Writer interface but we need a string.
 * This simply wraps the tablewriter.Table interface with a buffer
 * and adds a few helper functions
 */

type Table struct {
	*tablewriter.Table
	Out *bytes.Buffer
}

func NewTable() *Table {
	table := &Table{
		Out: new(bytes.Buffer),
	}
	table.Table = tablewriter.NewWriter(table.Out)
	table.SetAutoWrapText(false)
	return table
}
func (table *Table) RenderToString() string {
	table.Render()
	return table.Out.String()
}
func (table *Table) RenderTo(out io.Writer, title string) {
	rendered := strings.Trim(table.RenderToString(), "\n")
	if title != "" {
		fmt.Fprintln(out, title)
	}
	for _, line := range strings.Split(rendered, "\n") {
		fmt.Fprintln(out, line)
	}
}
