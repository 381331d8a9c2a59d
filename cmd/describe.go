package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/paraprep/internal/analysis"
	"github.com/KaramelBytes/paraprep/internal/table"
	"github.com/KaramelBytes/paraprep/internal/utils"
)

var (
	descOutputPath string
	descSampleRows int
	descGroupBy    string
	descCorr       bool
	descOutliers   bool
	descOutlierThr float64
	descSheetName  string
	descSheetIndex int
	descColumns    []string
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Summarize a CSV/TSV/XLSX file: shape, types, statistics, head and tail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		t, err := table.Load(path, table.Options{
			Columns:    descColumns,
			Sheet:      descSheetName,
			SheetIndex: descSheetIndex,
		})
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if descSampleRows > 0 {
			opt.SampleRows = descSampleRows
		}
		opt.GroupBy = descGroupBy
		opt.Correlations = descCorr
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = descOutliers
		}
		if descOutlierThr > 0 {
			opt.OutlierThreshold = descOutlierThr
		}
		md := analysis.Summarize(t, opt).Markdown()

		if descOutputPath != "" {
			if err := utils.SafeWriteFile(descOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", descOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the summary")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of head and tail rows to include")
	describeCmd.Flags().StringVar(&descGroupBy, "group-by", "", "column to group numeric summaries by")
	describeCmd.Flags().BoolVar(&descCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().BoolVar(&descOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	describeCmd.Flags().Float64Var(&descOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	describeCmd.Flags().StringVar(&descSheetName, "sheet-name", "", "XLSX: sheet name to describe")
	describeCmd.Flags().IntVar(&descSheetIndex, "sheet-index", 0, "XLSX: 0-based sheet index (used if --sheet-name not provided)")
	describeCmd.Flags().StringSliceVar(&descColumns, "columns", nil, "only load these columns")
}
