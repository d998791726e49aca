package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voltlint/voltlint/internal/engine"
	"github.com/voltlint/voltlint/internal/session"
	"github.com/voltlint/voltlint/internal/streaming"
	"github.com/voltlint/voltlint/internal/validation"
)

var (
	watchInterval time.Duration
	watchJSON     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <diagram.json>",
	Short: "Re-evaluate a diagram file as it changes",
	Long: `Watch polls a diagram file and pushes every save through a validation
session: edits are debounced, unchanged content is served from the
result cache, and each result is printed as the session publishes it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger := newLogger(cfg.LogLevel)

		validator, err := validation.NewDiagramValidator()
		if err != nil {
			return fmt.Errorf("initialize validator: %w", err)
		}
		registry, err := buildRegistry(cfg, logger)
		if err != nil {
			return err
		}
		evaluator := engine.NewEvaluator(registry, logger)

		hub := streaming.NewMemoryHub()
		sess := session.New(evaluator,
			session.WithDebounce(time.Duration(cfg.DebounceMs)*time.Millisecond),
			session.WithCacheTTL(time.Duration(cfg.CacheTTLSecs)*time.Second),
			session.WithHub(hub),
			session.WithLogger(logger),
		)
		defer sess.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, cancel, err := hub.Subscribe(ctx, streaming.EventFilter{SessionID: sess.ID()})
		if err != nil {
			return fmt.Errorf("subscribe to results: %w", err)
		}
		defer cancel()

		var lastMod time.Time
		feed := func() error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if !info.ModTime().After(lastMod) {
				return nil
			}
			lastMod = info.ModTime()

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			diagram, err := validator.ValidateDocument(raw)
			if err != nil {
				logger.Warn("diagram invalid, keeping last result", "error", err)
				return nil
			}
			sess.OnDiagramChanged(diagram, nil)
			return nil
		}

		if err := feed(); err != nil {
			return fmt.Errorf("reading diagram: %w", err)
		}
		logger.Info("watching diagram", "path", args[0], "interval", watchInterval)

		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := feed(); err != nil {
					logger.Warn("polling diagram", "error", err)
				}
			case ev := <-events:
				if err := printWatchEvent(ev); err != nil {
					return err
				}
			}
		}
	},
}

func printWatchEvent(ev streaming.ResultEvent) error {
	if watchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	}

	status := "COMPLIANT"
	if !ev.Result.Compliant {
		status = "NON-COMPLIANT"
	}
	source := "evaluated"
	if ev.FromCache {
		source = "cached"
	}
	fmt.Printf("%s  %s  score=%d  errors=%d  warnings=%d  (%s)\n",
		time.Now().Format("15:04:05"), status,
		ev.Result.Score, ev.Result.ErrorCount, ev.Result.WarningCount, source)
	for _, rec := range ev.Result.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}
	return nil
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "file poll interval")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "emit each result event as JSON")
	rootCmd.AddCommand(watchCmd)
}
