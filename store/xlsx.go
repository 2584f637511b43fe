package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSX is a Store backed by a directory of Excel workbooks. A spreadsheet named
// 'Monsters' is read from <dir>/Monsters.xlsx.
type XLSX struct {
	dir string
}

type workbook struct {
	file  *excelize.File
	title string
}

type worksheet struct {
	file  *excelize.File
	title string
}

var a1Range = regexp.MustCompile(`^\$?([a-zA-Z]+)\$?([0-9]*)(?::\$?([a-zA-Z]+)\$?([0-9]*))?$`)

func NewXLSX(dir string) *XLSX {
	return &XLSX{
		dir: dir,
	}
}

func (x *XLSX) Open(ctx context.Context, name string) (Spreadsheet, error) {
	file := name
	if !strings.EqualFold(filepath.Ext(file), ".xlsx") {
		file += ".xlsx"
	}

	path := filepath.Join(x.dir, file)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: '%s'", ErrSpreadsheetNotFound, name)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook '%s' (%w)", path, err)
	}

	return &workbook{
		file:  f,
		title: strings.TrimSuffix(file, filepath.Ext(file)),
	}, nil
}

func (w *workbook) Title() string {
	return w.title
}

func (w *workbook) Sheet(ctx context.Context, title string) (Sheet, error) {
	list := w.file.GetSheetList()
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: workbook '%s' has no worksheets", ErrSheetNotFound, w.title)
	}

	if strings.TrimSpace(title) == "" {
		return &worksheet{file: w.file, title: list[0]}, nil
	}

	for _, name := range list {
		if sameTitle(name, title) {
			return &worksheet{file: w.file, title: name}, nil
		}
	}

	return nil, fmt.Errorf("%w: '%s' in workbook '%s'", ErrSheetNotFound, title, w.title)
}

func (w *workbook) Close() error {
	return w.file.Close()
}

func (s *worksheet) Title() string {
	return s.title
}

// Values returns the cells in the area. An area qualified with a worksheet title
// e.g. 'Spells'!A1:B is read from that worksheet rather than this one.
func (s *worksheet) Values(ctx context.Context, area string) (Grid, error) {
	title := s.title

	area = strings.TrimSpace(area)
	if ix := strings.LastIndex(area, "!"); ix >= 0 {
		if t, err := s.qualified(area[:ix]); err != nil {
			return nil, err
		} else {
			title = t
		}

		area = strings.TrimSpace(area[ix+1:])
	}

	rows, err := s.file.GetRows(title)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve data from sheet '%s' (%w)", title, err)
	}

	if area == "" {
		return Grid(rows), nil
	}

	top, left, bottom, right, err := bounds(area)
	if err != nil {
		return nil, err
	}

	grid := Grid{}
	for i := top; i < len(rows) && (bottom < 0 || i <= bottom); i++ {
		row := rows[i]
		record := []string{}
		for j := left; j < len(row) && (right < 0 || j <= right); j++ {
			record = append(record, row[j])
		}

		grid = append(grid, record)
	}

	// ... trailing empty rows are omitted, same as the Sheets API
	for len(grid) > 0 && len(grid[len(grid)-1]) == 0 {
		grid = grid[:len(grid)-1]
	}

	return grid, nil
}

// qualified resolves the worksheet title prefix of an A1 area, unquoting quoted
// titles e.g. 'My Sheet' or 'Ogre''s Den'.
func (s *worksheet) qualified(prefix string) (string, error) {
	title := strings.TrimSpace(prefix)
	if len(title) >= 2 && strings.HasPrefix(title, "'") && strings.HasSuffix(title, "'") {
		title = strings.ReplaceAll(title[1:len(title)-1], "''", "'")
	}

	for _, name := range s.file.GetSheetList() {
		if sameTitle(name, title) {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w: '%s'", ErrSheetNotFound, title)
}

// bounds converts an A1 area to zero-based inclusive row/column bounds. An open
// ended bound (e.g. the missing row in 'A2:F') is returned as -1.
func bounds(area string) (top, left, bottom, right int, err error) {
	match := a1Range.FindStringSubmatch(area)
	if match == nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid range '%s'", area)
	}

	col := func(v string) (int, error) {
		n, err := excelize.ColumnNameToNumber(v)
		if err != nil {
			return 0, fmt.Errorf("invalid range '%s' (%w)", area, err)
		}
		return n - 1, nil
	}

	row := func(v string, dflt int) int {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n - 1
		}
		return dflt
	}

	if left, err = col(match[1]); err != nil {
		return
	}

	top = row(match[2], 0)

	// ... single cell e.g. 'B3'
	if match[3] == "" {
		if match[2] == "" {
			return top, left, -1, left, nil
		}
		return top, left, top, left, nil
	}

	if right, err = col(match[3]); err != nil {
		return
	}

	bottom = row(match[4], -1)

	if right < left || (bottom >= 0 && bottom < top) {
		return 0, 0, 0, 0, fmt.Errorf("invalid range '%s'", area)
	}

	return top, left, bottom, right, nil
}
