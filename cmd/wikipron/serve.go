package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/wikipron/internal/config"
	"github.com/hazyhaar/wikipron/pkg/api"
	"github.com/hazyhaar/wikipron/pkg/chassis"
	"github.com/hazyhaar/wikipron/pkg/importer"
	"github.com/hazyhaar/wikipron/pkg/lexicon"
	"github.com/hazyhaar/wikipron/pkg/scrape"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "config file (default: $WIKIPRON_CONFIG or ./config.yaml)",
	}
}

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "serve the lexicons over HTTP and MCP",
	Description: "SIGHUP reloads the lexicons directory. With server.tls the same port\n" +
		"also accepts HTTP/3 and MCP over QUIC.",
	Flags:  []cli.Flag{configFlag()},
	Action: runServe,
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(cmd.Root().ErrWriter)
	slog.SetDefault(logger)

	reg, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}

	// SIGHUP: hot reload lexicons.
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sighup:
				logger.Info("SIGHUP received, reloading lexicons")
				if err := reg.Reload(); err != nil {
					logger.Error("reload failed", "error", err)
					continue
				}
				logger.Info("lexicons reloaded", "count", reg.LexiconCount(), "entries", reg.TotalEntries())
			}
		}
	}()

	if cfg.Sources.Check {
		if err := ensureParent(cfg.SourcesDB()); err != nil {
			return err
		}
		sdb, err := importer.OpenSourceDB(cfg.SourcesDB())
		if err != nil {
			return err
		}
		defer sdb.Close()
		if err := sdb.Seed(importer.All()); err != nil {
			return err
		}
		go importer.NewChecker(sdb, importer.All(), logger, cfg.Sources.CheckInterval).Start(ctx)
	}

	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(reg, logger))

	var mcpSrv *server.MCPServer
	if !cfg.Server.NoMCP {
		mcpSrv = api.NewMCPServer(scrape.Version, reg, logger)
		mux.Handle("/mcp", server.NewStreamableHTTPServer(mcpSrv))
	}

	srv, err := chassis.New(chassis.Config{
		Addr:            cfg.Server.Addr,
		Plaintext:       !cfg.Server.TLS,
		CertFile:        cfg.Server.CertFile,
		KeyFile:         cfg.Server.KeyFile,
		Handler:         mux,
		MCPServer:       mcpSrv,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func loadRegistry(cfg *config.Config, logger *slog.Logger) (*lexicon.Registry, error) {
	reg := lexicon.NewRegistry(cfg.Lexicons.Dir)
	if err := reg.Load(); err != nil {
		return nil, fmt.Errorf("load lexicons: %w", err)
	}
	logger.Info("lexicons loaded", "dir", cfg.Lexicons.Dir, "count", reg.LexiconCount(), "entries", reg.TotalEntries())
	return reg, nil
}
