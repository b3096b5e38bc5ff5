package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/inscribe/internal"
	"github.com/starford/inscribe/internal/models"
	pkgconfig "github.com/starford/inscribe/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if id := cmd.String("identity"); id != "" {
		cfg.MCP.Identity = id
	}
	// stdout carries the protocol.
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func importDir(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir := cmd.Args().First()
	if dir == "" {
		return fmt.Errorf("import: directory argument is required")
	}
	owner := models.Identity(cmd.String("owner"))

	res, err := internal.RunImport(ctx, owner, dir, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
	return err
}

func initialize(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	operator := models.Identity(cmd.String("operator"))
	amount := uint64(cmd.Uint("fee"))
	if err := internal.RunInitialize(ctx, operator, amount, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr)); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	fmt.Printf("initialized: operator=%s fee=%d\n", operator, amount)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "inscribe",
		Usage:  "Multi-tenant note registry with per-owner isolation, soft deletion and fee-gated writes",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: serveMCP,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "identity",
						Usage:   "Identity the tools act as (overrides mcp.identity)",
						Sources: cli.EnvVars("INSCRIBE_MCP_IDENTITY"),
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Create a note for every Markdown file in a directory",
				ArgsUsage: "DIR",
				Action:    importDir,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "owner",
						Usage:    "Identity that owns the imported notes",
						Required: true,
					},
				},
			},
			{
				Name:   "init",
				Usage:  "Configure the operator and fee",
				Action: initialize,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "operator",
						Usage:    "Identity that receives fees and may change them",
						Required: true,
					},
					&cli.UintFlag{
						Name:  "fee",
						Usage: "Fee charged per create and update",
						Value: 1_000_000,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
