package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hazyhaar/wikipron/internal/config"
	"github.com/hazyhaar/wikipron/pkg/api"
	"github.com/hazyhaar/wikipron/pkg/mcpquic"
	"github.com/hazyhaar/wikipron/pkg/scrape"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
)

var mcpCommand = &cli.Command{
	Name:   "mcp",
	Usage:  "serve the MCP tools on stdio",
	Flags:  []cli.Flag{configFlag()},
	Action: runMCPStdio,
	Commands: []*cli.Command{
		{
			Name:      "call",
			Usage:     "call a tool on a server's MCP over QUIC endpoint",
			ArgsUsage: "<tool> [key=value ...]",
			Description: "Values are sent as strings unless they parse as JSON,\n" +
				"so languages=[\"en\",\"fr\"] sends a list.",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "addr", Value: "localhost:8420", Usage: "server UDP address"},
				&cli.BoolFlag{Name: "insecure", Usage: "skip TLS certificate verification"},
			},
			Action: runMCPCall,
		},
	},
}

func runMCPStdio(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	logger := cfg.Log.NewLogger(cmd.Root().ErrWriter)

	reg, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}
	srv := server.NewStdioServer(api.NewMCPServer(scrape.Version, reg, logger))
	return srv.Listen(ctx, cmd.Root().Reader, cmd.Root().Writer)
}

func runMCPCall(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("tool name is required")
	}
	tool := cmd.Args().First()
	args, err := parseToolArgs(cmd.Args().Tail())
	if err != nil {
		return err
	}

	c := mcpquic.NewClient(cmd.String("addr"), mcpquic.ClientTLSConfig(cmd.Bool("insecure")), scrape.Version)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()

	res, err := c.CallTool(ctx, tool, args)
	if err != nil {
		return err
	}
	w := cmd.Root().Writer
	for _, content := range res.Content {
		if text, ok := content.(mcp.TextContent); ok {
			fmt.Fprintln(w, text.Text)
		}
	}
	if res.IsError {
		return fmt.Errorf("tool %s failed", tool)
	}
	return nil
}

func parseToolArgs(kvs []string) (map[string]any, error) {
	args := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q: want key=value", kv)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			args[k] = decoded
			continue
		}
		args[k] = v
	}
	return args, nil
}
