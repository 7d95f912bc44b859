package importer

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Checker periodically pings every harvest source with the query its
// adapter starts an import with, and records the outcome in the SourceDB.
type Checker struct {
	sources  *SourceDB
	adapters map[string]Adapter
	logger   *slog.Logger
	interval time.Duration
	client   *http.Client
}

// NewChecker creates a Checker for the given adapters. Rows of the SourceDB
// without a matching adapter are recorded as failed.
func NewChecker(sources *SourceDB, adapters []Adapter, logger *slog.Logger, interval time.Duration) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	byID := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		byID[a.ID()] = a
	}
	return &Checker{
		sources:  sources,
		adapters: byID,
		logger:   logger,
		interval: interval,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll pings every source and persists the result.
func (c *Checker) CheckAll(ctx context.Context) {
	sources, err := c.sources.ListSources()
	if err != nil {
		c.logger.Error("source check: list sources failed", "error", err)
		return
	}
	if len(sources) == 0 {
		return
	}

	var ok, failed int
	for _, src := range sources {
		if ctx.Err() != nil {
			return
		}

		status, checkErr := c.checkOne(ctx, src)
		errMsg := ""
		if checkErr != nil {
			errMsg = checkErr.Error()
		}
		if err := c.sources.UpdateCheck(src.AdapterID, status, errMsg); err != nil {
			c.logger.Error("source check: update failed", "adapter", src.AdapterID, "error", err)
		}

		if checkErr == nil {
			ok++
			continue
		}
		failed++
		c.logger.Warn("source unavailable",
			"adapter", src.AdapterID,
			"url", src.SourceURL,
			"status", status,
			"error", errMsg,
		)
	}

	c.logger.Info("source check complete", "total", ok+failed, "ok", ok, "failed", failed)
}

func (c *Checker) checkOne(ctx context.Context, src Source) (int, error) {
	a, ok := c.adapters[src.AdapterID]
	if !ok {
		return 0, errNoAdapter
	}
	return a.Ping(ctx, Options{
		SourceURL:  src.SourceURL,
		HTTPClient: c.client,
		Logger:     c.logger,
	})
}
