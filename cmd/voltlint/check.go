package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/voltlint/voltlint/internal/engine"
	"github.com/voltlint/voltlint/internal/session"
	"github.com/voltlint/voltlint/internal/store"
	"github.com/voltlint/voltlint/internal/validation"
	"github.com/voltlint/voltlint/pkg/schema"
)

var (
	checkServiceAmps    float64
	checkTotalLoadAmps  float64
	checkContinuousAmps float64
	checkJSON           bool
	checkPersist        bool
)

var checkCmd = &cobra.Command{
	Use:   "check <diagram.json>",
	Short: "Evaluate a diagram document against the full rule base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger := newLogger(cfg.LogLevel)

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading diagram: %w", err)
		}

		validator, err := validation.NewDiagramValidator()
		if err != nil {
			return fmt.Errorf("initialize validator: %w", err)
		}
		diagram, err := validator.ValidateDocument(raw)
		if err != nil {
			return fmt.Errorf("diagram validation failed: %w", err)
		}

		registry, err := buildRegistry(cfg, logger)
		if err != nil {
			return err
		}
		evaluator := engine.NewEvaluator(registry, logger)

		var load *schema.LoadContext
		if checkServiceAmps > 0 || checkTotalLoadAmps > 0 || checkContinuousAmps > 0 {
			load = &schema.LoadContext{
				ServiceAmps:    checkServiceAmps,
				TotalLoadAmps:  checkTotalLoadAmps,
				ContinuousAmps: checkContinuousAmps,
			}
		}

		result := evaluator.Evaluate(cmd.Context(), diagram, load)

		if checkPersist {
			if err := persistReport(cmd.Context(), cfg, diagram, result); err != nil {
				logger.Warn("failed to persist report", "error", err)
			}
		}

		if checkJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		} else {
			printResult(diagram, result)
		}

		if !result.Compliant {
			os.Exit(1)
		}
		return nil
	},
}

func persistReport(ctx context.Context, cfg *Config, diagram *schema.Diagram, result *schema.ComplianceResult) error {
	st, err := store.NewLibSQLStore("file:" + cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	report, err := store.NewReport(diagram.ID, session.ContentHash(diagram), result)
	if err != nil {
		return err
	}
	return st.AppendReport(ctx, report)
}

func printResult(diagram *schema.Diagram, result *schema.ComplianceResult) {
	status := "COMPLIANT"
	if !result.Compliant {
		status = "NON-COMPLIANT"
	}
	fmt.Printf("%s  score=%d  errors=%d  warnings=%d  info=%d\n",
		status, result.Score, result.ErrorCount, result.WarningCount, result.InfoCount)

	printBucket("component", result.ByComponent)
	printBucket("connection", result.ByConnection)
	for _, v := range result.System {
		printViolation("system", "", v)
	}

	if len(result.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, r := range result.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
}

func printBucket(kind string, bucket map[string][]schema.Violation) {
	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, v := range bucket[id] {
			printViolation(kind, id, v)
		}
	}
}

func printViolation(kind, id string, v schema.Violation) {
	loc := kind
	if id != "" {
		loc = fmt.Sprintf("%s %s", kind, id)
	}
	fmt.Printf("  [%s] %s (%s, %s): %s\n", v.Severity, v.Code, v.Section, loc, v.Description)
	if v.Remediation != "" {
		fmt.Printf("      fix: %s\n", v.Remediation)
	}
}

func init() {
	checkCmd.Flags().Float64Var(&checkServiceAmps, "service-amps", 0, "service capacity in amps")
	checkCmd.Flags().Float64Var(&checkTotalLoadAmps, "total-load-amps", 0, "total calculated load in amps")
	checkCmd.Flags().Float64Var(&checkContinuousAmps, "continuous-amps", 0, "continuous portion of the load in amps")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "emit the full result as JSON")
	checkCmd.Flags().BoolVar(&checkPersist, "persist", false, "append the result to the report store")
	rootCmd.AddCommand(checkCmd)
}
