package commands

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/pflag"

	"github.com/sitesync/sheets-publish/config"
)

const APP = "sheets-publish"
const VERSION = "v0.1.0"

type Options struct {
	Debug  bool
	Config *config.Config
}

// Command is a sheets-publish CLI command. The flags are bound to the command fields
// so that the command can be executed directly from main.
type Command interface {
	Name() string
	Description() string
	Usage() string
	Flags(flagset *pflag.FlagSet)
	Execute(ctx context.Context, options *Options) error
}

// resolve returns the first non-blank value e.g. command line flag, then environment,
// then default.
func resolve(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	return ""
}

func debugf(format string, args ...any) {
	log.Printf("%-5s %s", "DEBUG", fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	log.Printf("%-5s %s", "INFO", fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	log.Printf("%-5s %s", "WARN", fmt.Sprintf(format, args...))
}

func errorf(format string, args ...any) {
	log.Printf("%-5s %s", "ERROR", fmt.Sprintf(format, args...))
}
