package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-hazard/internal/config"
	"github.com/joeblew999/plat-hazard/internal/server"
	"github.com/joeblew999/plat-hazard/internal/symbology"
)

// Options defines the CLI flags of the hazard server. Unset flags fall back
// to the config file and HAZARD_* env vars.
// Flags: --config, --host, --port, --data-dir, --preset, --log-level
type Options struct {
	Config   string `doc:"Path to hazard.yaml" short:"c"`
	Host     string `doc:"Host to bind to (default 0.0.0.0)"`
	Port     int    `doc:"Port to listen on (default 8087)" short:"p"`
	DataDir  string `doc:"Directory for the feature store and source files (default .data)"`
	Preset   string `doc:"Map preset: v1, v2, compact or one from the config file"`
	LogLevel string `doc:"Log level: debug, info, warn, error"`
}

// load merges the flags over the config file and builds the global logger.
func load(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}
	if opts.DataDir != "" {
		cfg.Server.DataDir = opts.DataDir
	}
	if opts.Preset != "" {
		cfg.Map.Preset = opts.Preset
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return cfg, nil
}

func newServer(cfg *config.Config) (*server.Server, error) {
	return server.New(context.Background(), server.Config{App: cfg, Logger: zap.L()})
}

func fail(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

func printJSONOrYAML(v any, useYAML bool) {
	var output []byte
	var err error
	if useYAML {
		output, err = yaml.Marshal(v)
	} else {
		output, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		fail("Error marshaling output", err)
	}
	fmt.Println(string(output))
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var httpServer *http.Server
		var srv *server.Server

		hooks.OnStart(func() {
			cfg, err := load(opts)
			if err != nil {
				fail("Config error", err)
			}
			srv, err = newServer(cfg)
			if err != nil {
				fail("Server error", err)
			}

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			displayHost := cfg.Server.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, cfg.Server.Port)

			fmt.Println()
			fmt.Printf("plat-hazard server starting...\n")
			fmt.Printf("  Map:     %s/\n", baseURL)
			fmt.Printf("  Preset:  %s\n", srv.Preset().Name)
			fmt.Printf("  Data:    %s\n", cfg.Server.DataDir)
			fmt.Println()
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			httpServer = &http.Server{Addr: addr, Handler: srv}
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				zap.L().Fatal("server error", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			if httpServer == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				zap.L().Warn("shutdown", zap.Error(err))
			}
			srv.Close()
			zap.L().Sync()
		})
	})

	cli.Root().Use = "hazard"
	cli.Root().Short = "The United States of Rising Hazards map server"
	cli.Root().Version = "1.0.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := load(opts)
			if err != nil {
				fail("Config error", err)
			}
			srv, err := newServer(cfg)
			if err != nil {
				fail("Server error", err)
			}
			defer srv.Close()

			useYAML, _ := cmd.Flags().GetBool("yaml")
			printJSONOrYAML(srv.OpenAPI(), useYAML)
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// layout subcommand: print the symbol ring of a preset
	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the symbol placements of the preset (--yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := load(opts)
			if err != nil {
				fail("Config error", err)
			}
			preset, err := cfg.Preset("")
			if err != nil {
				fail("Config error", err)
			}
			placements, err := symbology.Generate(preset.Symbols)
			if err != nil {
				fail("Invalid layout", err)
			}

			useYAML, _ := cmd.Flags().GetBool("yaml")
			printJSONOrYAML(map[string]any{
				"preset":     preset.Name,
				"params":     preset.Symbols,
				"placements": placements,
			}, useYAML)
		}),
	}
	layoutCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(layoutCmd)

	// load subcommand: import source files into the feature store
	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Import the GeoJSON files under <data-dir>/sources into the feature store",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := load(opts)
			if err != nil {
				fail("Config error", err)
			}
			loaded, err := server.Load(cmd.Context(), cfg.Server.DataDir)
			if err != nil {
				fail("Load failed", err)
			}
			for file, n := range loaded {
				fmt.Printf("  %-32s %d features\n", file, n)
			}
		}),
	}
	cli.Root().AddCommand(loadCmd)

	cli.Run()
}
