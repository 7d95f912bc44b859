package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/hazyhaar/wikipron/pkg/importer"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

var importCommand = &cli.Command{
	Name:  "import",
	Usage: "harvest built-in sources into lexicon directories",
	Description: "Without --source or --all, lists the sources with their last check and import.\n" +
		"Source URL overrides given with --url are stored in the sources database.",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "source", Usage: "adapter ID to import, e.g. wiktionary-en"},
		&cli.BoolFlag{Name: "all", Usage: "import every source"},
		&cli.StringFlag{Name: "url", Usage: "store a new source URL for --source before importing"},
		&cli.StringFlag{Name: "output-dir", Value: "lexicons", Usage: "lexicons directory"},
		&cli.StringFlag{Name: "db", Usage: "sources database (default: <output-dir>/sources.db)"},
		&cli.StringFlag{Name: "cut-off-date", Usage: "skip entries edited after this YYYY-MM-DD date (default: today)"},
		&cli.IntFlag{Name: "concurrency", Value: 2, Usage: "sources imported in parallel with --all"},
		&cli.DurationFlag{Name: "timeout", Value: 12 * time.Hour, Usage: "abort the whole import after this long"},
	},
	Action: runImport,
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	logger := cliLogger(cmd)
	outputDir := cmd.String("output-dir")
	dbPath := cmd.String("db")
	if dbPath == "" {
		dbPath = filepath.Join(outputDir, "sources.db")
	}
	if err := ensureParent(dbPath); err != nil {
		return err
	}

	sdb, err := importer.OpenSourceDB(dbPath)
	if err != nil {
		return err
	}
	defer sdb.Close()
	if err := sdb.Seed(importer.All()); err != nil {
		return err
	}

	source, all := cmd.String("source"), cmd.Bool("all")
	if source == "" && !all {
		return listSources(cmd.Root().Writer, sdb)
	}
	if source != "" && all {
		return fmt.Errorf("--source and --all are exclusive")
	}

	var adapters []importer.Adapter
	if all {
		adapters = importer.All()
	} else {
		a, err := importer.Get(source)
		if err != nil {
			return err
		}
		if u := cmd.String("url"); u != "" {
			if err := sdb.SetURL(a.ID(), u); err != nil {
				return err
			}
		}
		adapters = []importer.Adapter{a}
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	// One failing source does not stop the others; errors are joined at the end.
	g := new(errgroup.Group)
	g.SetLimit(max(1, int(cmd.Int("concurrency"))))
	errs := make([]error, len(adapters))
	for i, a := range adapters {
		g.Go(func() error {
			errs[i] = importOne(ctx, sdb, a, importer.Options{
				OutputDir:  outputDir,
				CutOffDate: cmd.String("cut-off-date"),
				Logger:     logger.With("source", a.ID()),
			})
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

func importOne(ctx context.Context, sdb *importer.SourceDB, a importer.Adapter, opts importer.Options) error {
	url, err := sdb.GetURL(a.ID())
	if err != nil {
		return err
	}
	opts.SourceURL = url

	opts.Logger.Info("import started", "url", url)
	start := time.Now()
	n, err := a.Import(ctx, opts)
	if err != nil {
		opts.Logger.Error("import failed", "error", err)
		return fmt.Errorf("%s: %w", a.ID(), err)
	}
	if err := sdb.RecordImport(a.ID(), n); err != nil {
		return err
	}
	opts.Logger.Info("import complete",
		"pairs", n,
		"lexicon", filepath.Join(opts.OutputDir, a.LexiconID()),
		"duration", time.Since(start).Round(time.Second),
	)
	return nil
}

func listSources(w io.Writer, sdb *importer.SourceDB) error {
	sources, err := sdb.ListSources()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Available sources:")
	fmt.Fprintln(w)
	for _, src := range sources {
		status := ""
		if src.LastStatus != nil {
			status = fmt.Sprintf("  [%d]", *src.LastStatus)
		}
		imported := ""
		if src.LastImport != nil && src.LastEntries != nil {
			imported = fmt.Sprintf("  %d pairs on %s", *src.LastEntries,
				time.Unix(*src.LastImport, 0).UTC().Format("2006-01-02"))
		}
		fmt.Fprintf(w, "  %-16s  %s  (-> %s)%s%s\n", src.AdapterID, src.Description, src.LexiconID, status, imported)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  wikipron import --source <id> [--output-dir <dir>]")
	fmt.Fprintln(w, "  wikipron import --all [--output-dir <dir>]")
	return nil
}
