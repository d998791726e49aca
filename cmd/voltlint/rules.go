package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rulesJSON bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the compliance rule base",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger := newLogger(cfg.LogLevel)

		registry, err := buildRegistry(cfg, logger)
		if err != nil {
			return err
		}
		infos := registry.List()

		if rulesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCATEGORY\tSECTION\tTITLE")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.ID, info.Category, info.Section, info.Title)
		}
		return w.Flush()
	},
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesJSON, "json", false, "emit the rule list as JSON")
	rootCmd.AddCommand(rulesCmd)
}
