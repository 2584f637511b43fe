// Package store abstracts the spreadsheet backends that content and configuration
// are read from.
//
// A Store opens a spreadsheet by name, a Spreadsheet resolves worksheets and a Sheet
// returns the text of its cells as a Grid. Cell values are always returned as the
// formatted text shown in the spreadsheet - no type coercion is applied.
package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
var ErrSheetNotFound = errors.New("worksheet not found")

// Grid is the unprocessed cell text of a worksheet or worksheet range, in row order.
// Rows are not guaranteed to be the same length.
type Grid [][]string

type Store interface {
	Open(ctx context.Context, name string) (Spreadsheet, error)
}

type Spreadsheet interface {
	Title() string

	// Sheet returns the worksheet with the matching title, or the first worksheet
	// if the title is blank.
	Sheet(ctx context.Context, title string) (Sheet, error)

	Close() error
}

type Sheet interface {
	Title() string

	// Values returns the cells in the A1 notation area e.g. 'A2:F', or all the
	// populated cells if area is blank.
	Values(ctx context.Context, area string) (Grid, error)
}

var spreadsheetURL = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)

// SpreadsheetID extracts the spreadsheet ID from a Google Sheets URL. Returns false
// if the name is not a spreadsheet URL.
func SpreadsheetID(name string) (string, bool) {
	match := spreadsheetURL.FindStringSubmatch(strings.TrimSpace(name))
	if len(match) < 2 || match[1] == "" {
		return "", false
	}

	return match[1], true
}

// sameTitle matches worksheet titles exactly, so 'Monsters' and 'monsters' are
// different worksheets.
func sameTitle(p, q string) bool {
	return p == q
}
