package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const mimeSpreadsheet = "application/vnd.google-apps.spreadsheet"

// Google is a Store backed by the Google Sheets API, using Google Drive to look up
// spreadsheets by title.
type Google struct {
	sheets *sheets.Service
	drive  *drive.Service
}

type spreadsheet struct {
	google *sheets.Service
	id     string
	title  string
	sheets []*sheets.SheetProperties
}

type sheet struct {
	google        *sheets.Service
	spreadsheetID string
	title         string
}

// NewGoogle creates a Google Sheets/Drive store using an authorised HTTP client. Any
// additional client options (e.g. an alternative endpoint) are applied to both
// services.
func NewGoogle(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*Google, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)

	s, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%w)", err)
	}

	d, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Drive client (%w)", err)
	}

	return &Google{
		sheets: s,
		drive:  d,
	}, nil
}

// Open opens a spreadsheet by URL or by title. Titles are resolved to a file ID
// with a Drive search, taking the first match.
func (g *Google) Open(ctx context.Context, name string) (Spreadsheet, error) {
	id, ok := SpreadsheetID(name)
	if !ok {
		if v, err := g.lookup(ctx, name); err != nil {
			return nil, err
		} else {
			id = v
		}
	}

	response, err := g.sheets.Spreadsheets.Get(id).
		Fields("spreadsheetId", "properties.title", "sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: '%s'", ErrSpreadsheetNotFound, name)
		}

		return nil, fmt.Errorf("failed to fetch spreadsheet '%s' (%w)", name, err)
	}

	s := spreadsheet{
		google: g.sheets,
		id:     response.SpreadsheetId,
		sheets: []*sheets.SheetProperties{},
	}

	if response.Properties != nil {
		s.title = response.Properties.Title
	}

	for _, v := range response.Sheets {
		if v.Properties != nil {
			s.sheets = append(s.sheets, v.Properties)
		}
	}

	return &s, nil
}

func (g *Google) lookup(ctx context.Context, title string) (string, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(title)
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escaped, mimeSpreadsheet)

	response, err := g.drive.Files.List().
		Q(q).
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		PageSize(10).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to search Google Drive for '%s' (%w)", title, err)
	}

	for _, f := range response.Files {
		if f.Name == title {
			return f.Id, nil
		}
	}

	return "", fmt.Errorf("%w: '%s'", ErrSpreadsheetNotFound, title)
}

func (s *spreadsheet) Title() string {
	return s.title
}

func (s *spreadsheet) Sheet(ctx context.Context, title string) (Sheet, error) {
	if len(s.sheets) == 0 {
		return nil, fmt.Errorf("%w: spreadsheet '%s' has no worksheets", ErrSheetNotFound, s.title)
	}

	// ... API returns worksheets in tab order but sort by index anyway in case it ever doesn't
	if strings.TrimSpace(title) == "" {
		first := s.sheets[0]
		for _, p := range s.sheets[1:] {
			if p.Index < first.Index {
				first = p
			}
		}

		return &sheet{google: s.google, spreadsheetID: s.id, title: first.Title}, nil
	}

	for _, p := range s.sheets {
		if sameTitle(p.Title, title) {
			return &sheet{google: s.google, spreadsheetID: s.id, title: p.Title}, nil
		}
	}

	return nil, fmt.Errorf("%w: '%s' in spreadsheet '%s'", ErrSheetNotFound, title, s.title)
}

func (s *spreadsheet) Close() error {
	return nil
}

func (s *sheet) Title() string {
	return s.title
}

func (s *sheet) Values(ctx context.Context, area string) (Grid, error) {
	response, err := s.google.Spreadsheets.Values.Get(s.spreadsheetID, s.a1(area)).
		ValueRenderOption("FORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve data from sheet '%s' (%w)", s.title, err)
	}

	grid := make(Grid, 0, len(response.Values))
	for _, row := range response.Values {
		record := make([]string, len(row))
		for i, v := range row {
			if v != nil {
				record[i] = fmt.Sprintf("%v", v)
			}
		}

		grid = append(grid, record)
	}

	return grid, nil
}

// a1 qualifies an area with the worksheet title unless it is already qualified.
func (s *sheet) a1(area string) string {
	area = strings.TrimSpace(area)
	quoted := "'" + strings.ReplaceAll(s.title, "'", "''") + "'"

	switch {
	case area == "":
		return quoted

	case strings.Contains(area, "!"):
		return area

	default:
		return quoted + "!" + area
	}
}

func isNotFound(err error) bool {
	var e *googleapi.Error

	return errors.As(err, &e) && e.Code == http.StatusNotFound
}
