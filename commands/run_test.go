package commands

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/sitesync/sheets-publish/config"
	"github.com/sitesync/sheets-publish/etl"
	"github.com/sitesync/sheets-publish/publish"
	"github.com/sitesync/sheets-publish/store"
)

type counting struct {
	store  store.Store
	opened []string
}

func (c *counting) Open(ctx context.Context, name string) (store.Spreadsheet, error) {
	c.opened = append(c.opened, name)

	return c.store.Open(ctx, name)
}

type published struct {
	path    string
	content string
}

type recorder struct {
	files  []published
	status map[string]publish.Status
}

func (r *recorder) Publish(ctx context.Context, path string, content []byte) publish.Result {
	r.files = append(r.files, published{path, string(content)})

	status := publish.Created
	if s, ok := r.status[path]; ok {
		status = s
	}

	return publish.Result{Path: path, Status: status}
}

func makeWorkbook(t *testing.T, dir, name string, sheets map[string][][]string, order []string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, title := range order {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", title); err != nil {
				t.Fatalf("Error renaming worksheet (%v)", err)
			}
		} else if _, err := f.NewSheet(title); err != nil {
			t.Fatalf("Error creating worksheet (%v)", err)
		}

		for r, row := range sheets[title] {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			values := []any{}
			for _, v := range row {
				values = append(values, v)
			}

			if err := f.SetSheetRow(title, cell, &values); err != nil {
				t.Fatalf("Error writing row %v (%v)", r+1, err)
			}
		}
	}

	if err := f.SaveAs(filepath.Join(dir, name+".xlsx")); err != nil {
		t.Fatalf("Error saving workbook (%v)", err)
	}
}

func setup(t *testing.T, layout bool) (*pipeline, *counting, *recorder) {
	t.Helper()

	dir := t.TempDir()
	workdir := t.TempDir()

	master := map[string][][]string{
		"Site Config": {
			{"Nome Google", "Caminho GitHub", "Nome Aba", "Linha Cabecalho", "Intervalo"},
			{"Bestiary", "data/monsters.json", "Monsters", "0", ""},
			{"", "data/orphan.json", "", "", ""},
			{"Grimoire", "data/spells.json", "", "", ""},
			{"Bestiary", "data/broken.json", "Monsters", "many", ""},
			{"Bestiary", "data/empty.json", "Monsters", "12", ""},
		},
		"Site Layout": {
			{"Page", "Path", ""},
			{"Home", "/", "x"},
			{"Bestiário", "/bestiary", ""},
		},
	}

	order := []string{"Site Config", "Site Layout"}
	if !layout {
		order = []string{"Site Config"}
	}

	makeWorkbook(t, dir, "Master", master, order)
	makeWorkbook(t, dir, "Bestiary", map[string][][]string{
		"Monsters": {
			{"Name", "Type", ""},
			{"Goblin", "Humanoid", "ignored"},
			{"   ", "", ""},
			{"Dragão", "Dragon", ""},
		},
	}, []string{"Monsters"})

	s := &counting{store: store.NewXLSX(dir)}
	r := &recorder{status: map[string]publish.Status{}}

	p := &pipeline{
		reader: &etl.ConfigReader{
			Store:       s,
			Spreadsheet: "Master",
			TasksSheet:  "Site Config",
			LayoutSheet: "Site Layout",
			TasksFile:   filepath.Join(workdir, "config.json"),
			LayoutFile:  filepath.Join(workdir, "site_layout.json"),
		},
		extractor:  etl.NewExtractor(s),
		publisher:  r,
		layoutPath: "site_layout.json",
	}

	return p, s, r
}

func TestPipeline(t *testing.T) {
	p, s, r := setup(t, true)

	summary := p.run(context.Background())

	expected := Summary{
		Layout:    etl.LayoutUpdated,
		Tasks:     3,
		Rejected:  1,
		Extracted: 1,
		Skipped:   1,
		Failed:    1,
		Created:   2,
	}

	if !reflect.DeepEqual(summary, expected) {
		t.Errorf("Incorrect summary\n   expected:%+v\n   got:     %+v", expected, summary)
	}

	// ... one open for the master spreadsheet and one per task
	opened := []string{"Master", "Bestiary", "Grimoire", "Bestiary"}
	if !reflect.DeepEqual(s.opened, opened) {
		t.Errorf("Incorrect spreadsheets opened\n   expected:%v\n   got:     %v", opened, s.opened)
	}

	if len(r.files) != 2 {
		t.Fatalf("Expected 2 published files, got %v", len(r.files))
	}

	layout := `[
    {
        "Page": "Home",
        "Path": "/"
    },
    {
        "Page": "Bestiário",
        "Path": "/bestiary"
    }
]
`

	monsters := `[
    {
        "Name": "Goblin",
        "Type": "Humanoid"
    },
    {
        "Name": "Dragão",
        "Type": "Dragon"
    }
]
`

	if r.files[0].path != "site_layout.json" {
		t.Errorf("Expected site layout to be published first, got %v", r.files[0].path)
	} else if r.files[0].content != layout {
		t.Errorf("Incorrect site layout\n   expected:%v\n   got:     %v", layout, r.files[0].content)
	}

	if r.files[1].path != "data/monsters.json" {
		t.Errorf("Incorrect published path - expected:%v, got:%v", "data/monsters.json", r.files[1].path)
	} else if r.files[1].content != monsters {
		t.Errorf("Incorrect JSON\n   expected:%v\n   got:     %v", monsters, r.files[1].content)
	}
}

func TestPipelineWithoutLayout(t *testing.T) {
	p, _, r := setup(t, false)

	summary := p.run(context.Background())

	if summary.Layout != etl.LayoutUnchanged {
		t.Errorf("Incorrect layout status - expected:%v, got:%v", etl.LayoutUnchanged, summary.Layout)
	}

	for _, f := range r.files {
		if f.path == "site_layout.json" {
			t.Errorf("Unchanged site layout should not be published")
		}
	}

	if summary.Extracted != 1 || summary.Created != 1 {
		t.Errorf("Expected tasks to be extracted and published with an unchanged layout, got %+v", summary)
	}
}

func TestPipelineWithUnreachableMaster(t *testing.T) {
	p, s, r := setup(t, true)

	// ... seed the cached task list
	tasks := []etl.Task{{Source: "Bestiary", Path: "cached/monsters.json", Sheet: "Monsters"}}
	if err := etl.SaveTasks(p.reader.TasksFile, tasks); err != nil {
		t.Fatalf("Error saving task list (%v)", err)
	}

	p.reader.Spreadsheet = "Missing"

	summary := p.run(context.Background())

	if summary.Layout != etl.LayoutReadFailed {
		t.Errorf("Incorrect layout status - expected:%v, got:%v", etl.LayoutReadFailed, summary.Layout)
	}

	if !reflect.DeepEqual(s.opened, []string{"Missing", "Bestiary"}) {
		t.Errorf("Expected cached task list to be used, opened %v", s.opened)
	}

	if len(r.files) != 1 || r.files[0].path != "cached/monsters.json" {
		t.Errorf("Incorrect published files %v", r.files)
	}
}

func TestPipelineCountsPublishOutcomes(t *testing.T) {
	p, _, r := setup(t, true)

	r.status["site_layout.json"] = publish.Conflict
	r.status["data/monsters.json"] = publish.Failed

	summary := p.run(context.Background())

	if summary.Conflicts != 1 || summary.Errors != 1 || summary.Created != 0 || summary.Updated != 0 {
		t.Errorf("Incorrect publish counts %+v", summary)
	}
}

func TestRunWithMissingTokenFailsBeforeReading(t *testing.T) {
	dir := t.TempDir()

	cmd := Run{
		workdir: dir,
		xlsx:    filepath.Join(dir, "does-not-exist"),
	}

	options := Options{
		Config: &config.Config{
			GitHub: config.GitHubConfig{Repository: "wizard/grimoire"},
			Site: config.SiteConfig{
				Spreadsheet: "Master",
				TasksFile:   "config.json",
				LayoutFile:  "site_layout.json",
			},
		},
	}

	err := cmd.Execute(context.Background(), &options)
	if err == nil {
		t.Fatalf("Expected error for missing GitHub token")
	} else if !strings.Contains(err.Error(), "TOKEN_GITHUB") {
		t.Errorf("Expected error to mention TOKEN_GITHUB, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.json")); err == nil {
		t.Errorf("Task list should not be written with an invalid configuration")
	}
}

func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()

	makeWorkbook(t, dir, "Master", map[string][][]string{
		"Site Config": {
			{"Source", "Path", "Sheet"},
			{"Bestiary", "data/monsters.json", "Monsters"},
		},
	}, []string{"Site Config"})

	makeWorkbook(t, dir, "Bestiary", map[string][][]string{
		"Monsters": {
			{"Name"},
			{"Goblin"},
		},
	}, []string{"Monsters"})

	cmd := Run{
		workdir: dir,
		xlsx:    dir,
		output:  out,
		dryrun:  true,
	}

	options := Options{
		Config: &config.Config{
			Site: config.SiteConfig{
				Spreadsheet: "Master",
				TasksSheet:  "Site Config",
				LayoutSheet: "Site Layout",
				TasksFile:   "config.json",
				LayoutFile:  "site_layout.json",
				LayoutPath:  "site_layout.json",
			},
		},
	}

	if err := cmd.Execute(context.Background(), &options); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	b, err := os.ReadFile(filepath.Join(out, "data", "monsters.json"))
	if err != nil {
		t.Fatalf("Expected dry run output (%v)", err)
	}

	expected := "[\n    {\n        \"Name\": \"Goblin\"\n    }\n]\n"
	if string(b) != expected {
		t.Errorf("Incorrect dry run output\n   expected:%v\n   got:     %v", expected, string(b))
	}
}

func TestPipelineWithUnreadableLayout(t *testing.T) {
	dir := t.TempDir()
	workdir := t.TempDir()

	makeWorkbook(t, dir, "Master", map[string][][]string{
		"Site Config": {
			{"Source", "Path", "Sheet"},
			{"Bestiary", "data/monsters.json", "Monsters"},
		},
		"Site Layout": {
			{"Page", "Page"},
			{"Home", "Index"},
		},
	}, []string{"Site Config", "Site Layout"})

	makeWorkbook(t, dir, "Bestiary", map[string][][]string{
		"Monsters": {
			{"Name"},
			{"Goblin"},
		},
	}, []string{"Monsters"})

	var logged bytes.Buffer

	log.SetOutput(&logged)
	defer log.SetOutput(os.Stderr)

	s := store.NewXLSX(dir)
	r := &recorder{status: map[string]publish.Status{}}
	p := &pipeline{
		reader: &etl.ConfigReader{
			Store:       s,
			Spreadsheet: "Master",
			TasksSheet:  "Site Config",
			LayoutSheet: "Site Layout",
			TasksFile:   filepath.Join(workdir, "config.json"),
			LayoutFile:  filepath.Join(workdir, "site_layout.json"),
		},
		extractor:  etl.NewExtractor(s),
		publisher:  r,
		layoutPath: "site_layout.json",
	}

	summary := p.run(context.Background())

	if summary.Layout != etl.LayoutReadFailed {
		t.Errorf("Incorrect layout status - expected:%v, got:%v", etl.LayoutReadFailed, summary.Layout)
	}

	if summary.Extracted != 1 || len(r.files) != 1 || r.files[0].path != "data/monsters.json" {
		t.Errorf("Expected refreshed task to be extracted and published, got %+v %v", summary, r.files)
	}

	if expected := "updated " + p.reader.TasksFile + " (1 tasks)"; !strings.Contains(logged.String(), expected) {
		t.Errorf("Expected task list update to be logged (%v), got:\n%v", expected, logged.String())
	}
}

func TestPipelineWithIncompleteCachedTasks(t *testing.T) {
	p, s, r := setup(t, true)

	cache := `[
    { "source": "Bestiary", "path": "cached/monsters.json", "sheet": "Monsters" },
    { "source": "", "path": "cached/orphan.json" },
    { "source": "Bestiary", "path": "" }
]`

	if err := os.WriteFile(p.reader.TasksFile, []byte(cache), 0600); err != nil {
		t.Fatalf("Error writing task list (%v)", err)
	}

	p.reader.Spreadsheet = "Missing"

	summary := p.run(context.Background())

	if summary.Tasks != 1 || summary.Rejected != 2 {
		t.Errorf("Expected 1 task and 2 rejected entries, got %+v", summary)
	}

	if !reflect.DeepEqual(s.opened, []string{"Missing", "Bestiary"}) {
		t.Errorf("Expected only the complete task to be extracted, opened %v", s.opened)
	}

	if len(r.files) != 1 || r.files[0].path != "cached/monsters.json" {
		t.Errorf("Incorrect published files %v", r.files)
	}
}
