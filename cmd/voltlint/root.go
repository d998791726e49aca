package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltlint/voltlint/internal/logging"
	"github.com/voltlint/voltlint/internal/rules"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "voltlint",
	Short: "Electrical code compliance and wire-sizing engine",
	Long: `Voltlint checks single-line diagrams of electrical systems against
NEC-style ampacity, voltage-drop, and installation rules. It sizes
conductors, runs a rule base over diagram documents, and keeps an
audit trail of compliance reports.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".voltlint.yml", "config file path")
}

// newLogger builds the process logger with correlation ID injection.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}

// buildRegistry assembles the rule base: built-ins plus any
// expression-defined rules from the configured YAML file.
func buildRegistry(cfg *Config, logger *slog.Logger) (*rules.Registry, error) {
	reg := rules.DefaultRegistry()

	if cfg.RulesFile == "" {
		return reg, nil
	}
	if _, err := os.Stat(cfg.RulesFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("rules file %s does not exist", cfg.RulesFile)
	}

	engines, err := rules.NewEngines()
	if err != nil {
		return nil, fmt.Errorf("initialize expression engines: %w", err)
	}
	n, err := rules.LoadExpressionRules(cfg.RulesFile, engines, reg)
	if err != nil {
		return nil, fmt.Errorf("load expression rules: %w", err)
	}
	logger.Info("loaded expression rules", slog.String("file", cfg.RulesFile), slog.Int("count", n))
	return reg, nil
}
