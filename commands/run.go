package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/go-github/v66/github"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/sitesync/sheets-publish/etl"
	"github.com/sitesync/sheets-publish/publish"
	"github.com/sitesync/sheets-publish/store"
)

var RunCmd = Run{
	workdir:     "",
	credentials: "",
	spreadsheet: "",
	xlsx:        "",
	output:      "",
	dryrun:      false,
}

// Run refreshes the task list and site layout from the master configuration
// spreadsheet, extracts every task to JSON and publishes the JSON files to the site
// repository.
type Run struct {
	workdir     string
	credentials string
	spreadsheet string
	xlsx        string
	output      string
	dryrun      bool
	debug       bool
}

// Summary is the outcome of a run.
type Summary struct {
	Layout    etl.LayoutStatus
	Tasks     int
	Rejected  int
	Extracted int
	Skipped   int
	Failed    int
	Created   int
	Updated   int
	Conflicts int
	Errors    int
}

type pipeline struct {
	reader     *etl.ConfigReader
	extractor  *etl.Extractor
	publisher  publish.Publisher
	layoutPath string
	debug      bool
}

func (cmd *Run) Name() string {
	return "run"
}

func (cmd *Run) Description() string {
	return "Extracts the configured spreadsheets to JSON and publishes them to the site repository (default)"
}

func (cmd *Run) Usage() string {
	return "[--credentials <file>] [--spreadsheet <title|URL>] [--dry-run]"
}

func (cmd *Run) Flags(flagset *pflag.FlagSet) {
	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, fmt.Sprintf("Directory for working files (tokens, task list, layout). Defaults to %v", DEFAULT_WORKDIR))
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the Google 'credentials.json' file")
	flagset.StringVar(&cmd.spreadsheet, "spreadsheet", cmd.spreadsheet, "Title or URL of the master configuration spreadsheet")
	flagset.StringVar(&cmd.xlsx, "xlsx", cmd.xlsx, "Reads spreadsheets from .xlsx files in this directory instead of Google Sheets")
	flagset.StringVar(&cmd.output, "output", cmd.output, "Output directory for --dry-run. Defaults to <workdir>/site")
	flagset.BoolVar(&cmd.dryrun, "dry-run", cmd.dryrun, "Writes the generated files to the output directory instead of publishing them")
}

func (cmd *Run) Execute(ctx context.Context, options *Options) error {
	conf := *options.Config

	cmd.debug = options.Debug

	workdir := resolve(cmd.workdir, conf.Google.Workdir, DEFAULT_WORKDIR)
	credentials := resolve(cmd.credentials, conf.Google.Credentials, DEFAULT_CREDENTIALS)
	conf.Site.Spreadsheet = resolve(cmd.spreadsheet, conf.Site.Spreadsheet)

	// ... check configuration before doing anything else
	if err := conf.Validate(!cmd.dryrun); err != nil {
		return err
	}

	if cmd.debug {
		debugf("%v", conf.String())
	}

	s, err := cmd.store(ctx, credentials, workdir)
	if err != nil {
		return err
	}

	var publisher publish.Publisher
	if cmd.dryrun {
		publisher = publish.NewDirectory(resolve(cmd.output, filepath.Join(workdir, "site")))
	} else {
		client := github.NewClient(nil).WithAuthToken(conf.GitHub.Token)
		if p, err := publish.NewGitHub(client, conf.GitHub.Repository, conf.GitHub.Branch, conf.GitHub.Message); err != nil {
			return err
		} else {
			publisher = p
		}
	}

	p := pipeline{
		reader: &etl.ConfigReader{
			Store:       s,
			Spreadsheet: conf.Site.Spreadsheet,
			TasksSheet:  conf.Site.TasksSheet,
			LayoutSheet: conf.Site.LayoutSheet,
			TasksFile:   filepath.Join(workdir, conf.Site.TasksFile),
			LayoutFile:  filepath.Join(workdir, conf.Site.LayoutFile),
		},
		extractor:  etl.NewExtractor(s),
		publisher:  publisher,
		layoutPath: conf.Site.LayoutPath,
		debug:      cmd.debug,
	}

	p.run(ctx)

	return nil
}

func (cmd *Run) store(ctx context.Context, credentials, workdir string) (store.Store, error) {
	if cmd.xlsx != "" {
		return store.NewXLSX(cmd.xlsx), nil
	}

	client, err := authorize(ctx, credentials, workdir)
	if err != nil {
		return nil, fmt.Errorf("Google Sheets authentication/authorization error (%w)", err)
	}

	google, err := store.NewGoogle(ctx, client)
	if err != nil {
		return nil, err
	}

	return google, nil
}

func (p *pipeline) run(ctx context.Context) Summary {
	id := uuid.New()
	summary := Summary{}

	infof("%v  refreshing configuration from '%v'", id, p.reader.Spreadsheet)

	refresh := p.reader.Refresh(ctx)
	summary.Layout = refresh.Layout
	summary.Rejected = len(refresh.Rejected)

	switch refresh.Layout {
	case etl.LayoutUpdated:
		infof("%v  updated %v (%v tasks)", id, p.reader.TasksFile, len(refresh.Tasks))
		infof("%v  updated %v", id, p.reader.LayoutFile)

	case etl.LayoutUnchanged:
		infof("%v  updated %v (%v tasks)", id, p.reader.TasksFile, len(refresh.Tasks))
		warnf("%v  site layout not updated - %v", id, refresh.Err)

	default:
		if refresh.Tasks != nil {
			infof("%v  updated %v (%v tasks)", id, p.reader.TasksFile, len(refresh.Tasks))
		}
		errorf("%v  %v", id, refresh.Err)
	}

	for _, r := range refresh.Rejected {
		errorf("%v  '%v' row %v: %v", id, p.reader.TasksSheet, r.Row, r.Err)
	}

	if refresh.Layout == etl.LayoutUpdated {
		if b, err := os.ReadFile(p.reader.LayoutFile); err != nil {
			errorf("%v  %v", id, err)
			summary.Errors++
		} else {
			summary.tally(id, p.publisher.Publish(ctx, p.layoutPath, b))
		}
	}

	// ... extract
	tasks, rejected, err := etl.LoadTasks(p.reader.TasksFile)
	if err != nil {
		errorf("%v  %v", id, err)
	}

	summary.Rejected += len(rejected)
	for _, r := range rejected {
		errorf("%v  %v entry %v: %v", id, p.reader.TasksFile, r.Row, r.Err)
	}

	summary.Tasks = len(tasks)
	extracted := []etl.Result{}

	for _, task := range tasks {
		infof("%v  reading %v", id, task.Source)

		result := p.extractor.Extract(ctx, task)
		switch result.Status {
		case etl.Extracted:
			summary.Extracted++
			extracted = append(extracted, result)
			if p.debug {
				debugf("%v  %v  %v records", id, task.Source, len(result.Table.Rows))
			}

		case etl.Skipped:
			summary.Skipped++
			warnf("%v  %v  skipped (%v)", id, task.Source, result.Err)

		default:
			summary.Failed++
			errorf("%v  %v  %v", id, task.Source, result.Err)
		}
	}

	// ... publish
	for _, result := range extracted {
		summary.tally(id, p.publisher.Publish(ctx, result.Task.Path, result.Content))
	}

	format := "%v  tasks:%v  extracted:%v  skipped:%v  failed:%v  rejected:%v  created:%v  updated:%v  conflicts:%v  errors:%v"
	infof(format, id, summary.Tasks, summary.Extracted, summary.Skipped, summary.Failed, summary.Rejected,
		summary.Created, summary.Updated, summary.Conflicts, summary.Errors)

	return summary
}

func (s *Summary) tally(id uuid.UUID, result publish.Result) {
	switch result.Status {
	case publish.Created:
		s.Created++
		infof("%v  published %v (new)", id, result.Path)

	case publish.Updated:
		s.Updated++
		infof("%v  published %v", id, result.Path)

	case publish.Conflict:
		s.Conflicts++
		errorf("%v  %v not published - modified since revision %v (%v)", id, result.Path, result.Revision, result.Err)

	default:
		s.Errors++
		errorf("%v  %v not published (%v)", id, result.Path, result.Err)
	}
}
