package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hazyhaar/wikipron/pkg/scrape"
	"github.com/urfave/cli/v3"
)

var scrapeCommand = &cli.Command{
	Name:  "scrape",
	Usage: "harvest word/pronunciation pairs of one language as TSV",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Required: true, Usage: "Wiktionary language name, e.g. English"},
		&cli.StringFlag{Name: "cut-off-date", Usage: "skip entries edited after this YYYY-MM-DD date (default: today)"},
		&cli.BoolFlag{Name: "no-skip-spaces", Usage: "keep multiword entries"},
		&cli.BoolFlag{Name: "casefold", Usage: "casefold words"},
		&cli.BoolFlag{Name: "no-stress", Usage: "remove stress marks"},
		&cli.BoolFlag{Name: "no-syllable-boundaries", Usage: "remove syllable boundaries"},
		&cli.BoolFlag{Name: "phonetic", Usage: "keep [phonetic] instead of /phonemic/ transcriptions"},
		&cli.BoolFlag{Name: "expand-variants", Usage: "emit every variant of pronunciations with (optional) segments"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write TSV here instead of stdout"},
		&cli.StringFlag{Name: "api-url", Value: scrape.DefaultAPIURL, Usage: "MediaWiki API endpoint"},
		&cli.StringFlag{Name: "page-url", Value: scrape.DefaultPageURL, Usage: "base URL of entry pages"},
	},
	Action: runScrape,
}

func runScrape(ctx context.Context, cmd *cli.Command) error {
	logger := cliLogger(cmd)
	s, err := scrape.New(scrape.Config{
		Language:             cmd.String("language"),
		CutOffDate:           cmd.String("cut-off-date"),
		NoSkipSpaces:         cmd.Bool("no-skip-spaces"),
		Casefold:             cmd.Bool("casefold"),
		NoStress:             cmd.Bool("no-stress"),
		NoSyllableBoundaries: cmd.Bool("no-syllable-boundaries"),
		Phonetic:             cmd.Bool("phonetic"),
		ExpandVariants:       cmd.Bool("expand-variants"),
		APIURL:               cmd.String("api-url"),
		PageURL:              cmd.String("page-url"),
		Logger:               logger,
	})
	if err != nil {
		return err
	}

	var (
		out io.Writer = cmd.Root().Writer
		f   *os.File
	)
	if path := cmd.String("output"); path != "" {
		if f, err = os.Create(path); err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	tsv := scrape.NewTSVWriter(out)
	scrapeErr := s.Scrape(ctx, tsv.Write)
	// Pairs written before a failure are kept.
	if err := tsv.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if scrapeErr != nil {
		return scrapeErr
	}
	logger.Info("scrape complete", "language", cmd.String("language"), "stats", s.Stats())
	if f != nil {
		return f.Close()
	}
	return nil
}
