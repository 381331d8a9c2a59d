package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/paraprep/internal/metrics"
	"github.com/KaramelBytes/paraprep/internal/pipeline"
)

var (
	prepDescribe bool
	prepStrict   bool
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Prepare the raw events, Excel medal and NPC code datasets",
	Long: `Runs three independent stages:
  events  raw events CSV -> paralympics_events_prepared.csv/.xlsx
  excel   first sheet of the medal workbook -> paralympics_excel_prepared.csv
  merge   prepared events joined with NPC codes -> paralympics_merged_prepared.csv
A stage whose input is missing is logged and skipped; the others still run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var describeOut io.Writer
		if prepDescribe {
			describeOut = cmd.OutOrStdout()
		}
		rec := metrics.NewRecorder()
		results := pipeline.New(cfg, logger.Named("pipeline"), rec, describeOut).Run()

		failed := 0
		for _, res := range results {
			if !res.OK() {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s: %v\n", res.Stage, res.Err)
				continue
			}
			for _, p := range res.Outputs {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%d rows)\n", p, res.Rows)
			}
		}
		if err := writeMetrics(rec); err != nil {
			return err
		}
		if prepStrict && failed > 0 {
			return fmt.Errorf("%d of %d stages failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	prepareCmd.Flags().BoolVar(&prepDescribe, "describe", true, "print a summary of each prepared table")
	prepareCmd.Flags().BoolVar(&prepStrict, "strict", false, "exit non-zero when any stage fails")
}
