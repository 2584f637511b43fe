package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sitesync/sheets-publish/commands"
	"github.com/sitesync/sheets-publish/config"
)

var cli = []commands.Command{
	&commands.RunCmd,
	&commands.GetCmd,
	&commands.AuthoriseCmd,
	&commands.VersionCmd,
}

var options = commands.Options{
	Debug: false,
}

func main() {
	// ... a missing .env file is not an error
	_ = godotenv.Load()

	conf, err := config.Load()
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	options.Config = conf
	options.Debug = conf.Debug

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := &cobra.Command{
		Use:           commands.APP,
		Short:         "Extracts Google Sheets worksheets to JSON and publishes them to a GitHub repository",
		Version:       commands.VERSION,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			return commands.RunCmd.Execute(c.Context(), &options)
		},
	}

	root.PersistentFlags().BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	commands.RunCmd.Flags(root.Flags())

	for _, cmd := range cli {
		root.AddCommand(subcommand(cmd))
	}

	if err := root.ExecuteContext(ctx); err != nil {
		cancel()
		log.Fatalf("ERROR: %v", err)
	}
}

func subcommand(cmd commands.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   cmd.Name() + " " + cmd.Usage(),
		Short: cmd.Description(),
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Execute(c.Context(), &options)
		},
	}

	cmd.Flags(c.Flags())

	return c
}
