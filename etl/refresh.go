package etl

import (
	"context"
	"errors"
	"fmt"

	"github.com/sitesync/sheets-publish/store"
)

type LayoutStatus int

const (
	LayoutUnchanged LayoutStatus = iota
	LayoutUpdated
	LayoutReadFailed
)

func (s LayoutStatus) String() string {
	switch s {
	case LayoutUnchanged:
		return "unchanged"
	case LayoutUpdated:
		return "updated"
	case LayoutReadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ConfigReader refreshes the local task list and site layout files from the master
// configuration spreadsheet.
type ConfigReader struct {
	Store       store.Store
	Spreadsheet string
	TasksSheet  string
	LayoutSheet string
	TasksFile   string
	LayoutFile  string
}

// Refresh is the outcome of a configuration refresh. Tasks and Rejected are only set
// if the task list was refreshed. Err is the reason the task list or layout could not
// be refreshed.
type Refresh struct {
	Tasks    []Task
	Rejected []Rejected
	Layout   LayoutStatus
	Err      error
}

// Refresh rewrites the local task list and site layout files. If the task list cannot
// be retrieved neither file is updated and the existing files are left as is. A
// missing layout worksheet is not an error - the layout is just reported as
// unchanged.
func (r *ConfigReader) Refresh(ctx context.Context) Refresh {
	spreadsheet, err := r.Store.Open(ctx, r.Spreadsheet)
	if err != nil {
		return Refresh{Layout: LayoutReadFailed, Err: err}
	}

	defer spreadsheet.Close()

	tasks, rejected, err := r.tasks(ctx, spreadsheet)
	if err != nil {
		return Refresh{Layout: LayoutReadFailed, Err: fmt.Errorf("error refreshing task list (%w)", err)}
	}

	refresh := Refresh{
		Tasks:    tasks,
		Rejected: rejected,
		Layout:   LayoutUpdated,
	}

	if err := r.layout(ctx, spreadsheet); errors.Is(err, store.ErrSheetNotFound) {
		refresh.Layout = LayoutUnchanged
		refresh.Err = err
	} else if err != nil {
		refresh.Layout = LayoutReadFailed
		refresh.Err = fmt.Errorf("error refreshing site layout (%w)", err)
	}

	return refresh
}

func (r *ConfigReader) tasks(ctx context.Context, spreadsheet store.Spreadsheet) ([]Task, []Rejected, error) {
	table, err := r.table(ctx, spreadsheet, r.TasksSheet)
	if err != nil {
		return nil, nil, err
	}

	tasks, rejected := ParseTasks(ConfigRows(table))

	if err := SaveTasks(r.TasksFile, tasks); err != nil {
		return nil, nil, err
	}

	return tasks, rejected, nil
}

func (r *ConfigReader) layout(ctx context.Context, spreadsheet store.Spreadsheet) error {
	table, err := r.table(ctx, spreadsheet, r.LayoutSheet)
	if err != nil {
		return err
	}

	b, err := Encode(table)
	if err != nil {
		return err
	}

	return WriteFile(r.LayoutFile, b)
}

func (r *ConfigReader) table(ctx context.Context, spreadsheet store.Spreadsheet, title string) (*Table, error) {
	sheet, err := spreadsheet.Sheet(ctx, title)
	if err != nil {
		return nil, err
	}

	grid, err := sheet.Values(ctx, "")
	if err != nil {
		return nil, err
	}

	// ... an empty worksheet is an empty table
	if len(grid) == 0 {
		return &Table{Columns: []string{}, Rows: [][]string{}}, nil
	}

	return MakeTable(grid, 0)
}
