// Package main is the entry point for the mikasa CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charank/mikasa/internal/chat"
	"github.com/charank/mikasa/internal/config"
	"github.com/charank/mikasa/internal/gateway"
	"github.com/charank/mikasa/internal/maintenance"
	"github.com/charank/mikasa/internal/memory/sqlite"
	"github.com/charank/mikasa/internal/model"
	"github.com/charmbracelet/huh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mikasa",
		Short:         "A self-hosted conversational backend with durable memory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), startCmd(), configCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("mikasa %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the chat gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				resolved, err := resolveConfigPath()
				if err != nil {
					return err
				}
				cfgPath = resolved
			}

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}))

			return run(cfg, logger)
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

// run wires the stores, engine, gateway, and optional retention
// scheduler, then blocks until SIGINT/SIGTERM.
func run(cfg *config.Config, logger *slog.Logger) error {
	store, err := sqlite.Open(sqlite.Config{
		MemoryPath:   cfg.Storage.MemoryPath,
		SessionsPath: cfg.Storage.SessionsPath,
		WAL:          *cfg.Storage.WAL,
		BusyTimeout:  cfg.Storage.BusyTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	backend := model.NewOllama(model.OllamaConfig{
		Endpoint: cfg.Model.Endpoint,
		Model:    cfg.Model.Name,
		Timeout:  time.Duration(cfg.Model.Timeout),
	})
	invoker := model.NewRetrier(backend, cfg.Model.MaxAttempts, time.Duration(cfg.Model.RetryDelay), logger)

	engine := chat.New(store.Fragments(), store.Transcript(), store.Modes(), invoker, chat.Config{
		Owner:             cfg.Chat.Owner,
		HistoryLimit:      cfg.Chat.HistoryLimit,
		DeleteRecentBatch: cfg.Chat.DeleteRecentBatch,
	}, logger)

	metrics := gateway.NewMetrics("mikasa", prometheus.DefaultRegisterer)

	gw := gateway.New(gateway.Config{
		Bind:              cfg.Server.Bind,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout),
		ShutdownTimeout:   time.Duration(cfg.Server.ShutdownTimeout),
		HistoryLimit:      cfg.Chat.HistoryLimit,
		DeleteRecentBatch: cfg.Chat.DeleteRecentBatch,
	}, engine, store, metrics, cfg.Model.Name, logger)

	if err := gw.Start(); err != nil {
		return err
	}

	var scheduler *maintenance.Scheduler
	if cfg.Retention.Enabled {
		scheduler = maintenance.NewScheduler(logger)
		job := &maintenance.RetentionJob{
			Transcript:   store.Transcript(),
			MaxAge:       time.Duration(cfg.Retention.MaxAge),
			Logger:       logger,
			ScheduleExpr: cfg.Retention.Schedule,
		}
		if err := scheduler.RegisterJob(job); err != nil {
			return err
		}
		if err := scheduler.Start(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx := context.Background()
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("scheduler stop failed", "error", err)
		}
	}
	return gw.Stop(shutdownCtx)
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(configCheckCmd(), configInitCmd())
	return cmd
}

func configCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Printf("Configuration OK (model %s, bind %s)\n", cfg.Model.Name, cfg.Server.Bind)
			return nil
		},
	}
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Interactively generate a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "mikasa.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}

			cfg := &config.Config{}
			cfg.Defaults()

			owner := cfg.Chat.Owner
			endpoint := cfg.Model.Endpoint
			modelName := cfg.Model.Name
			bind := cfg.Server.Bind
			retention := cfg.Retention.Enabled

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Your name").
						Description("How the assistant addresses you in stored memories.").
						Value(&owner),
					huh.NewInput().
						Title("Ollama endpoint").
						Value(&endpoint),
					huh.NewInput().
						Title("Model name").
						Value(&modelName),
					huh.NewInput().
						Title("Listen address").
						Value(&bind),
					huh.NewConfirm().
						Title("Prune old transcript entries nightly?").
						Value(&retention),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			cfg.Chat.Owner = owner
			cfg.Model.Endpoint = endpoint
			cfg.Model.Name = modelName
			cfg.Server.Bind = bind
			cfg.Retention.Enabled = retention

			if err := config.Validate(cfg); err != nil {
				return err
			}

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("config: marshal: %w", err)
			}
			if err := os.WriteFile(path, out, 0o600); err != nil {
				return fmt.Errorf("config: write %s: %w", path, err)
			}

			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

// resolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/mikasa/mikasa.yaml → ./mikasa.yaml
func resolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "mikasa", "mikasa.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "mikasa", "mikasa.yaml"))
	}

	candidates = append(candidates, "mikasa.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}
