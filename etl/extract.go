package etl

import (
	"context"
	"errors"
	"fmt"

	"github.com/sitesync/sheets-publish/store"
)

type Status int

const (
	Extracted Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Extracted:
		return "extracted"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single task. Table and Content are only set if the
// task was extracted, Err is only set if it was not.
type Result struct {
	Task    Task
	Status  Status
	Table   *Table
	Content []byte
	Err     error
}

type Extractor struct {
	store store.Store
}

func NewExtractor(s store.Store) *Extractor {
	return &Extractor{
		store: s,
	}
}

// Extract retrieves the task worksheet (or range) and converts it to a cleaned up
// table. A grid too short to contain the header row is skipped, any other error fails
// the task.
func (x *Extractor) Extract(ctx context.Context, task Task) Result {
	grid, err := x.fetch(ctx, task)
	if err != nil {
		return Result{Task: task, Status: Failed, Err: err}
	}

	table, err := MakeTable(grid, task.HeaderRow)
	if errors.Is(err, ErrNoHeader) {
		return Result{Task: task, Status: Skipped, Err: err}
	} else if err != nil {
		return Result{Task: task, Status: Failed, Err: err}
	}

	table = table.Clean()

	content, err := Encode(table)
	if err != nil {
		return Result{Task: task, Status: Failed, Err: fmt.Errorf("error encoding JSON (%w)", err)}
	}

	return Result{
		Task:    task,
		Status:  Extracted,
		Table:   table,
		Content: content,
	}
}

func (x *Extractor) fetch(ctx context.Context, task Task) (store.Grid, error) {
	spreadsheet, err := x.store.Open(ctx, task.Source)
	if err != nil {
		return nil, err
	}

	defer spreadsheet.Close()

	sheet, err := spreadsheet.Sheet(ctx, task.Sheet)
	if err != nil {
		return nil, err
	}

	return sheet.Values(ctx, task.Range)
}
