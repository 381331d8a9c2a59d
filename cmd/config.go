package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/paraprep/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set paraprep configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "data_dir: %s\n", cfg.DataDir)
		fmt.Fprintf(out, "output_dir: %s\n", cfg.OutputDir)
		fmt.Fprintf(out, "events_file: %s\n", cfg.EventsFile)
		fmt.Fprintf(out, "excel_file: %s\n", cfg.ExcelFile)
		if cfg.ExcelSheet != "" {
			fmt.Fprintf(out, "excel_sheet: %s\n", cfg.ExcelSheet)
		}
		fmt.Fprintf(out, "npc_file: %s\n", cfg.NPCFile)
		fmt.Fprintf(out, "date_layouts: %s\n", strings.Join(cfg.DateLayouts, ","))
		fmt.Fprintf(out, "event_columns: %s\n", strings.Join(cfg.EventColumns, ","))
		fmt.Fprintf(out, "event_int_columns: %s\n", strings.Join(cfg.EventIntColumns, ","))
		fmt.Fprintf(out, "medal_int_columns: %s\n", strings.Join(cfg.MedalIntColumns, ","))
		fmt.Fprintf(out, "drop_columns: %s\n", strings.Join(cfg.DropColumns, ","))
		fmt.Fprintf(out, "drop_rows: %s\n", joinInts(cfg.DropRows))
		fmt.Fprintf(out, "unique_columns: %s\n", strings.Join(cfg.UniqueColumns, ","))
		fmt.Fprintf(out, "not_null_columns: %s\n", strings.Join(cfg.NotNullColumns, ","))
		fmt.Fprintf(out, "date_columns: %s\n", strings.Join(cfg.DateColumns, ","))
		fmt.Fprintf(out, "plot_columns: %s\n", strings.Join(cfg.PlotColumns, ","))
		fmt.Fprintf(out, "event_types: %s\n", strings.Join(cfg.EventTypes, ","))
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		if cfg.MetricsTextfile != "" {
			fmt.Fprintf(out, "metrics_textfile: %s\n", cfg.MetricsTextfile)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}
