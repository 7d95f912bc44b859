// Command wikipron expands optional-segment patterns, harvests IPA
// pronunciations from Wiktionary and serves the harvested lexicons over HTTP
// and MCP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/wikipron/internal/config"
	"github.com/hazyhaar/wikipron/pkg/scrape"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "wikipron",
		Usage:   "harvest and serve IPA pronunciations from Wiktionary",
		Version: scrape.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			expandCommand,
			scrapeCommand,
			importCommand,
			serveCommand,
			mcpCommand,
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliLogger is the stderr logger of the one-shot commands.
func cliLogger(cmd *cli.Command) *slog.Logger {
	return config.LogConfig{Level: cmd.String("log-level"), Format: "text"}.NewLogger(cmd.Root().ErrWriter)
}
