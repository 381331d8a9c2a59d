package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/paraprep/internal/analysis"
	"github.com/KaramelBytes/paraprep/internal/metrics"
	"github.com/KaramelBytes/paraprep/internal/pipeline"
	"github.com/KaramelBytes/paraprep/internal/table"
	"github.com/KaramelBytes/paraprep/internal/utils"
	"github.com/KaramelBytes/paraprep/internal/validate"
)

var (
	valFileType string
	valFile     string
	valStrict   bool
	valJSON     bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check data-quality constraints of the prepared events file",
	Long: `Loads the prepared events file (CSV or Excel), prints its column types and
statistics, then checks uniqueness, missing values, the DD/MM/YYYY date format and
that duration equals end - start. Findings are logged; use --strict to fail on them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		switch strings.ToLower(strings.TrimSpace(valFileType)) {
		case "csv":
			path = cfg.OutputPath(pipeline.EventsCSV)
		case "excel":
			path = cfg.OutputPath(pipeline.EventsXLSX)
		default:
			return fmt.Errorf("unsupported --file_type: %s (use csv or excel)", valFileType)
		}
		if valFile != "" {
			path = valFile
		}
		t, err := table.Load(path, table.Options{Sheet: cfg.ExcelSheet})
		if err != nil {
			logger.Error("Failed to load data", zap.String("path", path), zap.Error(err))
			return err
		}

		out := cmd.OutOrStdout()
		if !valJSON {
			sum := analysis.Summarize(t, analysis.DefaultOptions())
			fmt.Fprintf(out, "[DATA TYPES]\n%s\n", sum.DataTypes())
			fmt.Fprintf(out, "[STATISTICS]\n%s\n", sum.Statistics())
		}

		rep := validate.CheckColumnConstraints(t, validate.Constraints{
			Unique:     cfg.UniqueColumns,
			NotNull:    cfg.NotNullColumns,
			Dates:      cfg.DateColumns,
			DateLayout: cfg.DateLayouts[0],
		})
		logResults(rep)

		rec := metrics.NewRecorder()
		rec.ObserveReport(filepath.Base(path), rep)
		if err := writeMetrics(rec); err != nil {
			return err
		}

		findings := rep.Findings()
		if valJSON {
			b, err := utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		} else if len(findings) == 0 {
			fmt.Fprintf(out, "✓ All %d checks passed for %s\n", len(rep.Results), filepath.Base(path))
		} else {
			fmt.Fprintf(out, "⚠ %d findings in %d checks for %s\n", len(findings), len(rep.Results), filepath.Base(path))
		}
		if valStrict && len(findings) > 0 {
			return fmt.Errorf("validation failed with %d findings", len(findings))
		}
		return nil
	},
}

func logResults(rep *validate.Report) {
	for _, res := range rep.Results {
		fields := []zap.Field{zap.String("check", res.Check)}
		if res.Column != "" {
			fields = append(fields, zap.String("column", res.Column))
		}
		if len(res.Rows) > 0 {
			fields = append(fields, zap.Ints("rows", res.Rows))
		}
		if res.Value != "" {
			fields = append(fields, zap.String("value", res.Value))
		}
		if res.Expected != "" || res.Found != "" {
			fields = append(fields, zap.String("expected", res.Expected), zap.String("found", res.Found))
		}
		switch res.Severity {
		case validate.SeverityOK:
			logger.Info(res.Message, fields...)
		case validate.SeverityWarning:
			logger.Warn(res.Message, fields...)
		default:
			logger.Error(res.Message, fields...)
		}
	}
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&valFileType, "file_type", "", "prepared file to check: csv or excel")
	validateCmd.Flags().StringVarP(&valFile, "file", "f", "", "check this file instead of the prepared output")
	validateCmd.Flags().BoolVar(&valStrict, "strict", false, "exit non-zero when any check reports a finding")
	validateCmd.Flags().BoolVar(&valJSON, "json", false, "print the report as JSON")
	_ = validateCmd.MarkFlagRequired("file_type")
}
