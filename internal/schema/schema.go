// Package schema models the tables, columns, and row counts of the connected
// data source, and renders them as text for LLM prompts.
package schema

import (
	"fmt"
	"strings"
)

// Column is a single column with its declared SQL type.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Table describes one table of the data source.
type Table struct {
	Name     string   `json:"name"`
	Columns  []Column `json:"columns"`
	RowCount int64    `json:"row_count"`
}

// Description is the full schema in a stable order. Keeping the order fixed
// keeps rendered prompts deterministic for a given data source.
type Description struct {
	Tables []Table `json:"tables"`
}

// Filter returns a copy of the description containing only the named tables,
// preserving schema order. Names that don't exist in the schema are ignored.
// An empty or nil name list keeps everything.
func (d Description) Filter(names []string) Description {
	if len(names) == 0 {
		return d
	}

	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}

	filtered := Description{}
	for _, t := range d.Tables {
		if keep[t.Name] {
			filtered.Tables = append(filtered.Tables, t)
		}
	}
	return filtered
}

// Format renders the description as plain text for inclusion in a prompt:
// one block per table listing columns, types, and the row count.
func (d Description) Format() string {
	var b strings.Builder
	for i, t := range d.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Table: %s (%d rows)\n", t.Name, t.RowCount)
		b.WriteString("Columns:\n")
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "  - %s: %s\n", c.Name, c.Type)
		}
	}
	return b.String()
}

// Stats summarizes a description for the status endpoint.
type Stats struct {
	TableCount  int   `json:"table_count"`
	ColumnCount int   `json:"column_count"`
	TotalRows   int64 `json:"total_rows"`
}

// Summarize computes aggregate counts across the whole description.
func Summarize(d Description) Stats {
	s := Stats{TableCount: len(d.Tables)}
	for _, t := range d.Tables {
		s.ColumnCount += len(t.Columns)
		s.TotalRows += t.RowCount
	}
	return s
}
