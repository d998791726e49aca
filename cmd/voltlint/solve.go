package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltlint/voltlint/internal/sizing"
	"github.com/voltlint/voltlint/pkg/schema"
)

var (
	solveAmps       float64
	solveVoltage    float64
	solveLength     float64
	solveMaterial   string
	solveTempRating int
	solveContinuous bool
	solveMotor      bool
	solveConductors int
	solveAmbient    float64
	solveMaxVDrop   float64
	solveJSON       bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Find the smallest conductor gauge for a circuit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if solveAmps <= 0 {
			return fmt.Errorf("--amps must be positive")
		}
		if solveVoltage <= 0 {
			return fmt.Errorf("--voltage must be positive")
		}

		spec := schema.CircuitSpec{
			LoadAmps:          solveAmps,
			Voltage:           solveVoltage,
			LengthFt:          solveLength,
			Material:          schema.Material(solveMaterial),
			TempRating:        schema.TempRating(solveTempRating),
			MaxVoltageDropPct: solveMaxVDrop,
			Derating: schema.DeratingContext{
				ConductorCount: solveConductors,
				AmbientTempC:   solveAmbient,
				ContinuousLoad: solveContinuous,
				MotorLoad:      solveMotor,
			},
		}

		result := sizing.Solve(spec)

		if solveJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Printf("gauge: %s\n", result.Gauge)
		fmt.Printf("base ampacity: %.1f A\n", result.BaseAmpacity)
		fmt.Printf("derated ampacity: %.1f A\n", result.DeratedAmpacity)
		fmt.Printf("adjusted load: %.1f A\n", result.AdjustedLoad)
		fmt.Printf("voltage drop: %.2f V (%.2f%%)\n", result.VoltageDrop, result.VoltageDropPct)
		if result.BreakerAmps > 0 {
			fmt.Printf("breaker: %d A\n", result.BreakerAmps)
		}
		fmt.Printf("compliant: %v\n", result.Compliant)
		for _, v := range result.Violations {
			fmt.Printf("  [%s] %s (%s): %s\n", v.Severity, v.Code, v.Section, v.Description)
			if v.Remediation != "" {
				fmt.Printf("      fix: %s\n", v.Remediation)
			}
		}

		if !result.Compliant {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	solveCmd.Flags().Float64Var(&solveAmps, "amps", 0, "circuit load in amps")
	solveCmd.Flags().Float64Var(&solveVoltage, "voltage", 0, "circuit voltage")
	solveCmd.Flags().Float64Var(&solveLength, "length", 0, "one-way run length in feet")
	solveCmd.Flags().StringVar(&solveMaterial, "material", "copper", "conductor material: copper or aluminum")
	solveCmd.Flags().IntVar(&solveTempRating, "temp-rating", 75, "insulation temperature rating: 60, 75, or 90")
	solveCmd.Flags().BoolVar(&solveContinuous, "continuous", false, "continuous load (125% adjustment)")
	solveCmd.Flags().BoolVar(&solveMotor, "motor", false, "motor load (125% adjustment)")
	solveCmd.Flags().IntVar(&solveConductors, "conductors", 3, "current-carrying conductors in the raceway")
	solveCmd.Flags().Float64Var(&solveAmbient, "ambient", 30, "ambient temperature in C")
	solveCmd.Flags().Float64Var(&solveMaxVDrop, "max-vdrop", 3.0, "maximum voltage drop percent")
	solveCmd.Flags().BoolVar(&solveJSON, "json", false, "emit the full result as JSON")
	rootCmd.AddCommand(solveCmd)
}
