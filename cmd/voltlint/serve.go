package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voltlint/voltlint/internal/engine"
	"github.com/voltlint/voltlint/internal/scheduler"
	"github.com/voltlint/voltlint/internal/store"
	"github.com/voltlint/voltlint/internal/validation"
	"github.com/voltlint/voltlint/pkg/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine over MCP stdio and run scheduled sweeps",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger := newLogger(cfg.LogLevel)

		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		st, err := store.NewLibSQLStore("file:" + cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate store: %w", err)
		}

		validator, err := validation.NewDiagramValidator()
		if err != nil {
			return fmt.Errorf("initialize validator: %w", err)
		}
		registry, err := buildRegistry(cfg, logger)
		if err != nil {
			return err
		}
		evaluator := engine.NewEvaluator(registry, logger)

		sched := scheduler.NewScheduler(st, evaluator, validator, logger)
		if err := sched.RecoverMissed(ctx); err != nil {
			logger.Warn("sweep recovery failed", "error", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				logger.Warn("scheduler stop failed", "error", err)
			}
		}()

		srv := mcp.NewVoltlintServer(mcp.VoltlintServerDeps{
			Evaluator: evaluator,
			Registry:  registry,
			Validator: validator,
			Store:     st,
			Logger:    logger,
		})

		logger.Info("voltlint serving on stdio",
			"db", cfg.DBPath,
			"rules", registry.Count(),
		)
		return srv.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
