package etl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sitesync/sheets-publish/store"
)

var ErrNoHeader = errors.New("not enough rows for header")

// Table is a rectangular set of records with named columns. Every row has exactly
// one value per column.
type Table struct {
	Columns []string
	Rows    [][]string
}

// MakeTable builds a table from a grid, using the row at 'header' for the column
// names and all the subsequent rows as records. Columns without a name are dropped,
// short rows are padded with blanks and long rows are truncated.
func MakeTable(grid store.Grid, header int) (*Table, error) {
	if header < 0 || len(grid) <= header {
		return nil, fmt.Errorf("%w (header row %v, %v rows)", ErrNoHeader, header, len(grid))
	}

	// .. build index
	index := []int{}
	columns := []string{}
	names := map[string]bool{}

	for i, v := range grid[header] {
		if v == "" {
			continue
		}

		if names[v] {
			return nil, fmt.Errorf("duplicate column name '%s'", v)
		}

		names[v] = true
		index = append(index, i)
		columns = append(columns, v)
	}

	// ... records
	records := [][]string{}
	for _, row := range grid[header+1:] {
		record := make([]string, len(index))
		for i, ix := range index {
			if ix < len(row) {
				record[i] = row[ix]
			}
		}

		records = append(records, record)
	}

	return &Table{
		Columns: columns,
		Rows:    records,
	}, nil
}

// Clean returns a copy of the table with whitespace-only values blanked and rows
// without any values removed.
func (t *Table) Clean() *Table {
	records := [][]string{}

	for _, row := range t.Rows {
		record := make([]string, len(row))
		empty := true
		for i, v := range row {
			if strings.TrimSpace(v) != "" {
				record[i] = v
				empty = false
			}
		}

		if !empty {
			records = append(records, record)
		}
	}

	return &Table{
		Columns: append([]string{}, t.Columns...),
		Rows:    records,
	}
}

// MarshalJSON encodes the table as a list of objects, with the object keys in column
// order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer

	b.WriteString("[")
	for i, row := range t.Rows {
		if i > 0 {
			b.WriteString(",")
		}

		b.WriteString("{")
		for j, c := range t.Columns {
			if j > 0 {
				b.WriteString(",")
			}

			if err := encode(&b, c); err != nil {
				return nil, err
			}

			b.WriteString(":")

			if err := encode(&b, row[j]); err != nil {
				return nil, err
			}
		}
		b.WriteString("}")
	}
	b.WriteString("]")

	return b.Bytes(), nil
}

func encode(b *bytes.Buffer, v string) error {
	e := json.NewEncoder(b)
	e.SetEscapeHTML(false)

	if err := e.Encode(v); err != nil {
		return err
	}

	// ... Encode appends a newline
	b.Truncate(b.Len() - 1)

	return nil
}
