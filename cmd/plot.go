package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/paraprep/internal/pipeline"
	"github.com/KaramelBytes/paraprep/internal/render"
	"github.com/KaramelBytes/paraprep/internal/table"
)

// Plot kinds accepted by --plots.
var plotKinds = []string{"histogram", "histogram-by-type", "boxplot", "timeseries", "timeseries-by-type", "grouped", "gender", "anomalies"}

var (
	plotFile    string
	plotOutDir  string
	plotList    []string
	plotTypes   []string
	plotColumns []string
	plotWidth   int
	plotHeight  int
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render exploratory charts of the prepared events file as PNG",
	Long: fmt.Sprintf(`Renders histograms, box diagrams and time series of the prepared events file.
Available plots: %s`, strings.Join(plotKinds, ", ")),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := plotFile
		if path == "" {
			path = cfg.OutputPath(pipeline.EventsCSV)
		}
		kinds := plotList
		if len(kinds) == 0 {
			kinds = plotKinds
		}
		for _, k := range kinds {
			if !contains(plotKinds, k) {
				return fmt.Errorf("unknown plot: %s (use %s)", k, strings.Join(plotKinds, ", "))
			}
		}
		types := plotTypes
		if len(types) == 0 {
			types = cfg.EventTypes
		}
		cols := plotColumns
		if !cmd.Flags().Changed("columns") {
			cols = cfg.PlotColumns
		}
		outDir := plotOutDir
		if outDir == "" {
			outDir = filepath.Join(cfg.OutputDir, "plots")
		}

		t, err := table.Load(path, table.Options{})
		if err != nil {
			logger.Error("Failed to load data", zap.String("path", path), zap.Error(err))
			return err
		}
		opt := render.DefaultOptions(outDir)
		opt.DateLayouts = append(append([]string{}, cfg.DateLayouts...), "2006-01-02")
		if plotWidth > 0 {
			opt.Width = plotWidth
		}
		if plotHeight > 0 {
			opt.Height = plotHeight
		}
		r := render.New(opt, logger.Named("render"))

		var written, failed int
		emit := func(p string, err error) {
			if err != nil {
				failed++
				logger.Error("Plot failed", zap.Error(err))
				return
			}
			written++
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s\n", p)
		}
		for _, k := range kinds {
			switch k {
			case "histogram":
				emit(r.Histogram(t, cols))
			case "histogram-by-type":
				for _, typ := range types {
					emit(r.HistogramByType(t, typ, cols))
				}
			case "boxplot":
				emit(r.BoxPlot(t, cols))
			case "timeseries":
				emit(r.TimeSeries(t, "start", "participants", render.SeriesOptions{Title: "Participants Over Time"}))
			case "timeseries-by-type":
				for _, typ := range types {
					emit(r.TimeSeriesByType(t, typ, "", ""))
				}
			case "grouped":
				emit(r.GroupedTimeSeries(t, "type", "start", "participants"))
			case "gender":
				emit(r.GenderTimeSeries(t))
			case "anomalies":
				emit(r.Anomalies(t))
			}
		}
		if written == 0 && failed > 0 {
			return fmt.Errorf("no plots written (%d failed)", failed)
		}
		if failed > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %d plots failed, see log\n", failed)
		}
		return nil
	},
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.Flags().StringVarP(&plotFile, "file", "f", "", "table to plot (default: prepared events CSV)")
	plotCmd.Flags().StringVarP(&plotOutDir, "out-dir", "o", "", "directory for PNG files (default: <output_dir>/plots)")
	plotCmd.Flags().StringSliceVar(&plotList, "plots", nil, "comma-separated plots to render (default: all)")
	plotCmd.Flags().StringSliceVar(&plotTypes, "event-types", nil, "event types for the per-type plots (default from config)")
	plotCmd.Flags().StringSliceVar(&plotColumns, "columns", nil, "numeric columns for histograms and box diagrams (default from config)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 0, "panel width in pixels")
	plotCmd.Flags().IntVar(&plotHeight, "height", 0, "panel height in pixels")
}
