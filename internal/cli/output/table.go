// Package output renders smbdctl command results as tables.
package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by types that know how to lay themselves
// out as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes data to w as a borderless, left-aligned table.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range data.Rows() {
		table.Append(row)
	}

	table.Render()
	return nil
}

// Rows is a ready-made TableRenderer for ad-hoc tables.
type Rows struct {
	headers []string
	rows    [][]string
}

// NewRows builds a Rows with the given column headers.
func NewRows(headers ...string) *Rows {
	return &Rows{headers: headers}
}

// Add appends one row.
func (r *Rows) Add(cells ...string) {
	r.rows = append(r.rows, cells)
}

func (r *Rows) Headers() []string { return r.headers }

func (r *Rows) Rows() [][]string { return r.rows }
