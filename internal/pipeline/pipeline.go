// Package pipeline runs the prepare stages: raw events, the Excel medal
// table and the NPC code merge.
package pipeline

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/KaramelBytes/paraprep/internal/analysis"
	"github.com/KaramelBytes/paraprep/internal/config"
	"github.com/KaramelBytes/paraprep/internal/metrics"
	"github.com/KaramelBytes/paraprep/internal/table"
	"github.com/KaramelBytes/paraprep/internal/transform"
)

// Stage names.
const (
	StageEvents = "events"
	StageExcel  = "excel"
	StageMerge  = "merge"
)

// Output file names, written under the configured output directory.
const (
	EventsCSV  = "paralympics_events_prepared.csv"
	EventsXLSX = "paralympics_events_prepared.xlsx"
	ExcelCSV   = "paralympics_excel_prepared.csv"
	MergedCSV  = "paralympics_merged_prepared.csv"
)

// ErrSkipped marks a stage that did not run because an earlier stage it
// depends on produced no table.
var ErrSkipped = errors.New("stage skipped")

// StageResult describes one stage run.
type StageResult struct {
	Stage   string
	Input   string
	Outputs []string
	Rows    int
	Cols    int
	Err     error
}

// OK reports whether the stage wrote its outputs.
func (r StageResult) OK() bool { return r.Err == nil }

// Runner executes the stages with a fixed configuration.
type Runner struct {
	cfg *config.Global
	tr  *transform.Transformer
	log *zap.Logger
	rec *metrics.Recorder
	out io.Writer
}

// New builds a Runner. Dataset descriptions are written to out; rec may be
// nil when metrics are not collected.
func New(cfg *config.Global, log *zap.Logger, rec *metrics.Recorder, out io.Writer) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	tr := transform.New(transform.Options{
		DateLayouts: cfg.DateLayouts,
		DropColumns: cfg.DropColumns,
	}, log.Named("transform"))
	return &Runner{cfg: cfg, tr: tr, log: log, rec: rec, out: out}
}

// Run executes every stage. A failing stage is logged and the next
// independent stage still runs.
func (r *Runner) Run() []StageResult {
	events, evRes := r.events()
	results := []StageResult{evRes, r.excel()}
	if events == nil {
		res := StageResult{Stage: StageMerge, Input: r.cfg.DataPath(r.cfg.NPCFile), Err: ErrSkipped}
		r.log.Warn("Skipping merge, no prepared events table", zap.String("stage", StageMerge))
		results = append(results, res)
	} else {
		results = append(results, r.merge(events))
	}
	for _, res := range results {
		if r.rec != nil {
			r.rec.ObserveStage(res.Stage, res.Rows, res.OK())
		}
	}
	return results
}

func (r *Runner) load(stage, path string, opt table.Options) (*table.Table, error) {
	t, err := table.Load(path, opt)
	if err != nil {
		if errors.Is(err, table.ErrNotFound) {
			r.log.Error("Input file not found", zap.String("stage", stage), zap.String("path", path))
		} else {
			r.log.Error("Failed to load input", zap.String("stage", stage), zap.String("path", path), zap.Error(err))
		}
		return nil, err
	}
	if _, missing := t.Present(opt.Columns); len(missing) > 0 {
		r.log.Warn("Selected columns not in file", zap.String("stage", stage), zap.Strings("columns", missing))
	}
	r.log.Info("Loaded input", zap.String("stage", stage), zap.String("path", path), zap.Int("rows", t.Len()))
	return t, nil
}

func (r *Runner) events() (*table.Table, StageResult) {
	res := StageResult{Stage: StageEvents, Input: r.cfg.DataPath(r.cfg.EventsFile)}
	t, err := r.load(StageEvents, res.Input, table.Options{Columns: r.cfg.EventColumns})
	if err != nil {
		res.Err = err
		return nil, res
	}
	if t.Has(transform.ColType) {
		r.log.Info("Distinct event types", zap.Strings("types", t.Unique(transform.ColType)))
	}
	for _, col := range []string{transform.ColStart, transform.ColEnd} {
		if t.Has(col) {
			r.log.Info("Missing dates", zap.String("column", col), zap.Int("count", t.CountNulls(col)))
		}
	}

	if t, err = r.tr.PrepareData(t, r.cfg.EventIntColumns); err == nil {
		if t, err = r.tr.HandleMissingValues(t, r.cfg.DropRows); err == nil {
			t, err = r.tr.ReplaceCountryNames(t)
		}
	}
	if err != nil {
		r.log.Error("Events preparation failed", zap.Error(err))
		res.Err = fmt.Errorf("prepare events: %w", err)
		return nil, res
	}
	r.describe(t)

	for _, w := range []struct {
		name  string
		write func(string) error
	}{
		{EventsCSV, t.WriteCSV},
		{EventsXLSX, t.WriteXLSX},
	} {
		path := r.cfg.OutputPath(w.name)
		if err := w.write(path); err != nil {
			r.log.Error("Failed to write output", zap.String("path", path), zap.Error(err))
			res.Err = err
			return t, res
		}
		res.Outputs = append(res.Outputs, path)
		r.log.Info("Saved prepared data", zap.String("stage", StageEvents), zap.String("path", path))
	}
	res.Rows, res.Cols = t.Shape()
	return t, res
}

func (r *Runner) excel() StageResult {
	res := StageResult{Stage: StageExcel, Input: r.cfg.DataPath(r.cfg.ExcelFile)}
	t, err := r.load(StageExcel, res.Input, table.Options{Sheet: r.cfg.ExcelSheet})
	if err != nil {
		res.Err = err
		return res
	}
	if t, err = r.tr.PrepareData(t, r.cfg.MedalIntColumns); err != nil {
		r.log.Error("Excel preparation failed", zap.Error(err))
		res.Err = fmt.Errorf("prepare excel: %w", err)
		return res
	}
	r.describe(t)
	return r.write(res, t, ExcelCSV)
}

func (r *Runner) merge(events *table.Table) StageResult {
	res := StageResult{Stage: StageMerge, Input: r.cfg.DataPath(r.cfg.NPCFile)}
	npc, err := r.load(StageMerge, res.Input, table.Options{
		Columns:              []string{transform.ColCode, transform.ColName},
		IgnoreEncodingErrors: true,
	})
	if err != nil {
		res.Err = err
		return res
	}
	merged, err := r.tr.MergeCountryCodes(events, npc)
	if err != nil {
		r.log.Error("Merge failed", zap.Error(err))
		res.Err = err
		return res
	}
	return r.write(res, merged, MergedCSV)
}

func (r *Runner) write(res StageResult, t *table.Table, name string) StageResult {
	path := r.cfg.OutputPath(name)
	if err := t.WriteCSV(path); err != nil {
		r.log.Error("Failed to write output", zap.String("path", path), zap.Error(err))
		res.Err = err
		return res
	}
	res.Outputs = append(res.Outputs, path)
	res.Rows, res.Cols = t.Shape()
	r.log.Info("Saved prepared data", zap.String("stage", res.Stage), zap.String("path", path))
	return res
}

func (r *Runner) describe(t *table.Table) {
	rep := analysis.Summarize(t, analysis.DefaultOptions())
	fmt.Fprintln(r.out, rep.Markdown())
}
