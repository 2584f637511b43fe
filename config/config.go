// Package config loads the sheets-publish settings from the environment.
//
// Every setting can be set with an environment variable (or in a .env file loaded
// by main) and most can be overridden on the command line.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

type Config struct {
	GitHub GitHubConfig
	Google GoogleConfig
	Site   SiteConfig

	// Debug enables debug logging (default: false)
	Debug bool `env:"SHEETS_DEBUG" default:"false"`
}

type GitHubConfig struct {
	// Token is the GitHub personal access token used to publish to the site repository
	Token string `env:"TOKEN_GITHUB" envAlt:"GITHUB_TOKEN"`

	// Repository is the site repository, as 'owner/repo'
	Repository string `env:"SITE_REPOSITORY"`

	// Branch is the branch to publish to (default: repository default branch)
	Branch string `env:"SITE_BRANCH"`

	// Message is the commit message for published files (default: Auto Update)
	Message string `env:"COMMIT_MESSAGE" default:"Auto Update"`
}

type GoogleConfig struct {
	// Credentials is the service account or OAuth client credentials file
	Credentials string `env:"GOOGLE_CREDENTIALS"`

	// Workdir holds the OAuth tokens and the local task list and layout files
	Workdir string `env:"SHEETS_WORKDIR"`
}

type SiteConfig struct {
	// Spreadsheet is the title or URL of the master configuration spreadsheet
	Spreadsheet string `env:"CONFIG_SPREADSHEET"`

	TasksSheet  string `env:"TASKS_SHEET" default:"Site Config"`
	LayoutSheet string `env:"LAYOUT_SHEET" default:"Site Layout"`

	// TasksFile and LayoutFile are the local cache files, relative to the work directory
	TasksFile  string `env:"TASKS_FILE" default:"config.json"`
	LayoutFile string `env:"LAYOUT_FILE" default:"site_layout.json"`

	// LayoutPath is the path of the site layout file in the site repository
	LayoutPath string `env:"LAYOUT_PATH" default:"site_layout.json"`
}

// Load reads the configuration from the environment, applying the defaults for
// unset values.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := load(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings required to publish to the site repository. The
// GitHub token is only required if publish is true i.e. not for a dry run.
func (c *Config) Validate(publish bool) error {
	var errs []string

	if strings.TrimSpace(c.Site.Spreadsheet) == "" {
		errs = append(errs, "CONFIG_SPREADSHEET is required")
	}

	if publish {
		if strings.TrimSpace(c.GitHub.Token) == "" {
			errs = append(errs, "TOKEN_GITHUB (or GITHUB_TOKEN) is required")
		}

		if owner, repo, ok := strings.Cut(strings.TrimSpace(c.GitHub.Repository), "/"); !ok || owner == "" || repo == "" {
			errs = append(errs, fmt.Sprintf("SITE_REPOSITORY (%q) must be 'owner/repo'", c.GitHub.Repository))
		}
	}

	if strings.TrimSpace(c.Site.TasksFile) == "" {
		errs = append(errs, "TASKS_FILE is required")
	}

	if strings.TrimSpace(c.Site.LayoutFile) == "" {
		errs = append(errs, "LAYOUT_FILE is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns the configuration with the GitHub token masked.
func (c *Config) String() string {
	token := ""
	if c.GitHub.Token != "" {
		token = "[MASKED]"
	}

	return fmt.Sprintf("Config{GitHub: {Token: %q, Repository: %q, Branch: %q}, Google: {Credentials: %q, Workdir: %q}, Site: {Spreadsheet: %q, Tasks: %q, Layout: %q}}",
		token, c.GitHub.Repository, c.GitHub.Branch,
		c.Google.Credentials, c.Google.Workdir,
		c.Site.Spreadsheet, c.Site.TasksSheet, c.Site.LayoutSheet)
}

func load(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)

		if !value.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := load(value); err != nil {
				return err
			}
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}

		s := os.Getenv(name)
		if alt := field.Tag.Get("envAlt"); s == "" && alt != "" {
			s = os.Getenv(alt)
		}

		if s == "" {
			s = field.Tag.Get("default")
		}

		if s == "" {
			continue
		}

		if err := set(value, s); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, s, err)
		}
	}

	return nil
}

func set(field reflect.Value, s string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(s)

	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}
