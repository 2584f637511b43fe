package etl

import (
	"context"
	"fmt"

	"github.com/sitesync/sheets-publish/store"
)

// memstore is an in-memory store.Store for tests. Worksheets are listed in tab
// order.
type memstore struct {
	spreadsheets map[string][]memsheet
	opened       []string
	fail         map[string]error
}

type memsheet struct {
	title string
	grid  store.Grid
}

type memspreadsheet struct {
	title  string
	sheets []memsheet
}

func (m *memstore) Open(ctx context.Context, name string) (store.Spreadsheet, error) {
	m.opened = append(m.opened, name)

	if err, ok := m.fail[name]; ok {
		return nil, err
	}

	if sheets, ok := m.spreadsheets[name]; ok {
		return &memspreadsheet{title: name, sheets: sheets}, nil
	}

	return nil, fmt.Errorf("%w: '%s'", store.ErrSpreadsheetNotFound, name)
}

func (s *memspreadsheet) Title() string {
	return s.title
}

func (s *memspreadsheet) Sheet(ctx context.Context, title string) (store.Sheet, error) {
	for i := range s.sheets {
		if title == "" || s.sheets[i].title == title {
			return &s.sheets[i], nil
		}
	}

	return nil, fmt.Errorf("%w: '%s'", store.ErrSheetNotFound, title)
}

func (s *memspreadsheet) Close() error {
	return nil
}

func (s *memsheet) Title() string {
	return s.title
}

// Values ignores the area and returns the whole grid except for "A3:B" style areas,
// which return the grid from the third row.
func (s *memsheet) Values(ctx context.Context, area string) (store.Grid, error) {
	if area == "A3:B" {
		if len(s.grid) < 2 {
			return store.Grid{}, nil
		}
		return s.grid[2:], nil
	}

	return s.grid, nil
}
