package commands

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/sitesync/sheets-publish/etl"
	"github.com/sitesync/sheets-publish/store"
)

var GetCmd = Get{
	workdir:     "",
	credentials: "",
	source:      "",
	sheet:       "",
	area:        "",
	header:      0,
	file:        "",
	format:      "json",
	xlsx:        "",
}

// Get extracts a single worksheet to a local JSON or TSV file, using the same
// conversion as 'run'. Intended for checking a task before adding it to the task
// list.
type Get struct {
	workdir     string
	credentials string
	source      string
	sheet       string
	area        string
	header      int
	file        string
	format      string
	xlsx        string
	debug       bool
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Extracts a single worksheet to a local JSON or TSV file"
}

func (cmd *Get) Usage() string {
	return "--source <title|URL> [--sheet <worksheet>] [--range <range>] [--header-row <row>] [--file <file>] [--format json|tsv]"
}

func (cmd *Get) Flags(flagset *pflag.FlagSet) {
	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, fmt.Sprintf("Directory for working files (tokens, task list, layout). Defaults to %v", DEFAULT_WORKDIR))
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the Google 'credentials.json' file")
	flagset.StringVar(&cmd.source, "source", cmd.source, "Title or URL of the spreadsheet")
	flagset.StringVar(&cmd.sheet, "sheet", cmd.sheet, "Worksheet title. Defaults to the first worksheet")
	flagset.StringVar(&cmd.area, "range", cmd.area, "Worksheet range e.g. 'A3:F'")
	flagset.IntVar(&cmd.header, "header-row", cmd.header, "Zero-based index of the header row within the range")
	flagset.StringVar(&cmd.file, "file", cmd.file, "Output file. Defaults to '<source> - <yyyy-mm-dd HHmmss>.<format>'")
	flagset.StringVar(&cmd.format, "format", cmd.format, "Output format (json or tsv)")
	flagset.StringVar(&cmd.xlsx, "xlsx", cmd.xlsx, "Reads spreadsheets from .xlsx files in this directory instead of Google Sheets")
}

func (cmd *Get) Execute(ctx context.Context, options *Options) error {
	cmd.debug = options.Debug

	// ... check parameters
	if strings.TrimSpace(cmd.source) == "" {
		return fmt.Errorf("--source is a required option")
	}

	if cmd.header < 0 {
		return fmt.Errorf("invalid --header-row (%v) - expected a non-negative integer", cmd.header)
	}

	format := strings.ToLower(strings.TrimSpace(cmd.format))
	if format != "json" && format != "tsv" {
		return fmt.Errorf("invalid --format '%v' - expected 'json' or 'tsv'", cmd.format)
	}

	file := cmd.file
	if strings.TrimSpace(file) == "" {
		name := cmd.source
		if _, ok := store.SpreadsheetID(name); ok {
			name = "sheet"
		}

		file = fmt.Sprintf("%v - %v.%v", name, time.Now().Format("2006-01-02 150405"), format)
	}

	task := etl.Task{
		Source:    cmd.source,
		Path:      file,
		Sheet:     cmd.sheet,
		HeaderRow: cmd.header,
		Range:     cmd.area,
	}

	if cmd.debug {
		debugf("task %+v", task)
	}

	var s store.Store
	if cmd.xlsx != "" {
		s = store.NewXLSX(cmd.xlsx)
	} else {
		workdir := resolve(cmd.workdir, options.Config.Google.Workdir, DEFAULT_WORKDIR)
		credentials := resolve(cmd.credentials, options.Config.Google.Credentials, DEFAULT_CREDENTIALS)

		client, err := authorize(ctx, credentials, workdir)
		if err != nil {
			return fmt.Errorf("Google Sheets authentication/authorization error (%w)", err)
		}

		if s, err = store.NewGoogle(ctx, client); err != nil {
			return err
		}
	}

	result := etl.NewExtractor(s).Extract(ctx, task)
	if result.Status != etl.Extracted {
		return fmt.Errorf("%v %v (%w)", task.Source, result.Status, result.Err)
	}

	content := result.Content
	if format == "tsv" {
		var b bytes.Buffer
		if err := etl.WriteTSV(&b, result.Table); err != nil {
			return fmt.Errorf("error creating TSV file (%w)", err)
		}

		content = b.Bytes()
	}

	if err := etl.WriteFile(file, content); err != nil {
		return err
	}

	infof("Retrieved %v records from %v to file %s", len(result.Table.Rows), task.Source, file)

	return nil
}
