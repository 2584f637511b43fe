package etl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Task is a single extraction job, mapping a spreadsheet (and optionally a worksheet and
// range within it) to the path of a JSON file in the site repository.
type Task struct {
	Source    string `json:"source"`
	Path      string `json:"path"`
	Sheet     string `json:"sheet"`
	HeaderRow int    `json:"header_row"`
	Range     string `json:"range"`
}

// ConfigRow is a row from the task list worksheet, keyed by column name.
type ConfigRow map[string]string

// Rejected is a task list row (or cached task list entry) that could not be converted
// to a valid Task.
type Rejected struct {
	Row int
	Err error
}

var columns = map[string][]string{
	"source": {"nomegoogle", "source", "spreadsheet"},
	"path":   {"caminhogithub", "path", "output"},
	"sheet":  {"nomeaba", "sheet", "worksheet"},
	"header": {"linhacabecalho", "headerrow", "header"},
	"range":  {"intervalo", "range"},
}

func (t Task) String() string {
	return fmt.Sprintf("%v -> %v", t.Source, t.Path)
}

// ParseTask converts a task list row to a Task. Rows without a source are skipped
// (ok is false, no error). Rows with a missing path or an invalid header row are
// returned as an error.
func ParseTask(row ConfigRow) (task Task, ok bool, err error) {
	source := row.get("source")
	if source == "" {
		return Task{}, false, nil
	}

	task = Task{
		Source: source,
		Path:   row.get("path"),
		Sheet:  row.get("sheet"),
		Range:  row.get("range"),
	}

	if task.Path == "" {
		return Task{}, false, fmt.Errorf("'%v' is missing an output path", source)
	}

	if v := row.get("header"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Task{}, false, fmt.Errorf("'%v' has an invalid header row '%v' - expected a non-negative integer", source, v)
		}

		task.HeaderRow = n
	}

	return task, true, nil
}

// ParseTasks converts the rows of a task list to Tasks, preserving the row order.
// The row numbers in the rejected list are worksheet row numbers, counting the header
// as row 1.
func ParseTasks(rows []ConfigRow) ([]Task, []Rejected) {
	tasks := []Task{}
	rejected := []Rejected{}

	for i, row := range rows {
		if task, ok, err := ParseTask(row); err != nil {
			rejected = append(rejected, Rejected{Row: i + 2, Err: err})
		} else if ok {
			tasks = append(tasks, task)
		}
	}

	return tasks, rejected
}

// ConfigRows converts a table to a list of rows keyed by normalised column name.
func ConfigRows(table *Table) []ConfigRow {
	rows := []ConfigRow{}

	for _, record := range table.Rows {
		row := ConfigRow{}
		for i, c := range table.Columns {
			row[normalise(c)] = record[i]
		}

		rows = append(rows, row)
	}

	return rows
}

func (r ConfigRow) get(field string) string {
	for _, k := range columns[field] {
		if v, ok := r[k]; ok {
			return strings.TrimSpace(v)
		}
	}

	return ""
}

// LoadTasks reads the local task list. A missing file is an empty task list. Entries
// without a source or output path (e.g. a hand edited file) are returned as rejected,
// numbered from 1 in file order.
func LoadTasks(file string) ([]Task, []Rejected, error) {
	b, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return []Task{}, []Rejected{}, nil
	} else if err != nil {
		return nil, nil, err
	}

	list := []Task{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, nil, fmt.Errorf("invalid task list '%v' (%w)", file, err)
	}

	tasks := []Task{}
	rejected := []Rejected{}

	for i, task := range list {
		if err := task.validate(); err != nil {
			rejected = append(rejected, Rejected{Row: i + 1, Err: err})
		} else {
			tasks = append(tasks, task)
		}
	}

	return tasks, rejected, nil
}

func (t Task) validate() error {
	switch {
	case strings.TrimSpace(t.Source) == "":
		return fmt.Errorf("task for '%v' is missing a source", t.Path)

	case strings.TrimSpace(t.Path) == "":
		return fmt.Errorf("'%v' is missing an output path", t.Source)

	case t.HeaderRow < 0:
		return fmt.Errorf("'%v' has an invalid header row '%v' - expected a non-negative integer", t.Source, t.HeaderRow)
	}

	return nil
}

// SaveTasks replaces the local task list.
func SaveTasks(file string, tasks []Task) error {
	b, err := Encode(tasks)
	if err != nil {
		return err
	}

	return WriteFile(file, b)
}

func normalise(v string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "_", "").Replace(v))
}
