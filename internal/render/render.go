// Package render draws exploratory charts of a table and saves them as PNG
// files. Subplot layouts are composed from individually rendered panels.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KaramelBytes/paraprep/internal/table"
	"github.com/KaramelBytes/paraprep/internal/transform"
	"github.com/KaramelBytes/paraprep/internal/utils"
)

var (
	// ErrNoColumns is returned when a chart is requested without columns.
	ErrNoColumns = errors.New("no columns specified")
	// ErrNoData is returned when the selected rows hold no plottable values.
	ErrNoData = errors.New("no plottable values")
)

// Options configures output location and panel geometry.
type Options struct {
	OutDir string
	// Width and Height of a single chart or subplot panel, in pixels.
	Width  int
	Height int
	// DateLayouts parse the x column of time series.
	DateLayouts []string
}

// DefaultOptions writes 1000x600 charts to dir.
func DefaultOptions(dir string) Options {
	return Options{
		OutDir:      dir,
		Width:       1000,
		Height:      600,
		DateLayouts: append(transform.DefaultOptions().DateLayouts, "2006-01-02"),
	}
}

// Renderer writes charts for tables.
type Renderer struct {
	opt Options
	log *zap.Logger
}

// New returns a Renderer. A nil logger discards output.
func New(opt Options, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultOptions(opt.OutDir)
	if opt.Width <= 0 {
		opt.Width = def.Width
	}
	if opt.Height <= 0 {
		opt.Height = def.Height
	}
	if len(opt.DateLayouts) == 0 {
		opt.DateLayouts = def.DateLayouts
	}
	return &Renderer{opt: opt, log: log}
}

var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
}

func paletteColor(i int) drawing.Color { return palette[i%len(palette)] }

var titleCaser = cases.Title(language.English)

// Label capitalizes an event type for titles ("summer" -> "Summer").
func Label(eventType string) string { return titleCaser.String(eventType) }

// FileName derives a PNG file name from a chart title.
func FileName(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "_") + ".png"
}

// Histogram draws a 10-bin histogram per column into a grid.
func (r *Renderer) Histogram(t *table.Table, cols []string) (string, error) {
	return r.histograms(t, cols, func(col string) string { return col }, "histogram_with_labels.png")
}

// HistogramByType draws the histograms for rows whose type equals eventType.
func (r *Renderer) HistogramByType(t *table.Table, eventType string, cols []string) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("histogram for %s events: %w", eventType, ErrNoColumns)
	}
	sub, err := r.filterType(t, eventType)
	if err != nil {
		return "", err
	}
	title := func(col string) string { return fmt.Sprintf("%s Event: %s", Label(eventType), col) }
	return r.histograms(sub, cols, title, fmt.Sprintf("histogram_%s_events.png", eventType))
}

func (r *Renderer) histograms(t *table.Table, cols []string, title func(string) string, name string) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("histogram: %w", ErrNoColumns)
	}
	if err := requireColumns(t, cols...); err != nil {
		return "", fmt.Errorf("histogram: %w", err)
	}
	var panels []image.Image
	for _, col := range cols {
		vals := numericValues(t, col)
		if len(vals) == 0 {
			r.log.Warn("No numeric values to plot", zap.String("column", col))
			continue
		}
		img, err := r.renderChart(histogramChart(title(col), vals, 10))
		if err != nil {
			return "", fmt.Errorf("histogram %s: %w", col, err)
		}
		panels = append(panels, img)
	}
	if len(panels) == 0 {
		return "", fmt.Errorf("histogram: %w", ErrNoData)
	}
	return r.save(grid(panels, histogramColumns(len(panels))), name)
}

// BoxPlot draws one box diagram per column in a two-column grid.
func (r *Renderer) BoxPlot(t *table.Table, cols []string) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("boxplot: %w", ErrNoColumns)
	}
	if err := requireColumns(t, cols...); err != nil {
		return "", fmt.Errorf("boxplot: %w", err)
	}
	var panels []image.Image
	for _, col := range cols {
		vals := numericValues(t, col)
		if len(vals) == 0 {
			r.log.Warn("No numeric values to plot", zap.String("column", col))
			continue
		}
		img, err := r.renderChart(boxChart(col, vals))
		if err != nil {
			return "", fmt.Errorf("boxplot %s: %w", col, err)
		}
		panels = append(panels, img)
	}
	if len(panels) == 0 {
		return "", fmt.Errorf("boxplot: %w", ErrNoData)
	}
	return r.save(grid(panels, 2), "boxplot_with_labels.png")
}

// SeriesOptions labels a time series chart. Empty fields take the defaults.
type SeriesOptions struct {
	XLabel string
	YLabel string
	Title  string
}

func (o SeriesOptions) withDefaults() SeriesOptions {
	if o.XLabel == "" {
		o.XLabel = "Start Date"
	}
	if o.YLabel == "" {
		o.YLabel = "Number of Participants"
	}
	if o.Title == "" {
		o.Title = "Time Series"
	}
	return o
}

// TimeSeries plots y against the dates in x. The file name derives from the title.
func (r *Renderer) TimeSeries(t *table.Table, x, y string, opts SeriesOptions) (string, error) {
	opts = opts.withDefaults()
	s, err := r.series(t, x, y, y, paletteColor(0))
	if err != nil {
		return "", fmt.Errorf("time series: %w", err)
	}
	return r.saveChart(r.lineChart(opts, s), FileName(opts.Title))
}

// TimeSeriesByType plots participants over start for one event type.
func (r *Renderer) TimeSeriesByType(t *table.Table, eventType, x, y string) (string, error) {
	if x == "" {
		x = "start"
	}
	if y == "" {
		y = "participants"
	}
	sub, err := r.filterType(t, eventType)
	if err != nil {
		return "", err
	}
	label := Label(eventType)
	s, err := r.series(sub, x, y, label+" Participants", paletteColor(0))
	if err != nil {
		return "", fmt.Errorf("time series for %s events: %w", eventType, err)
	}
	opts := SeriesOptions{Title: label + " Participants Over Time"}.withDefaults()
	return r.saveChart(r.lineChart(opts, s), fmt.Sprintf("%s_participants_timeseries.png", eventType))
}

// GroupedTimeSeries draws one line per distinct value of group.
func (r *Renderer) GroupedTimeSeries(t *table.Table, group, x, y string) (string, error) {
	if err := requireColumns(t, group); err != nil {
		return "", fmt.Errorf("grouped time series: %w", err)
	}
	keys := t.Unique(group)
	sort.Strings(keys)
	var all []chart.Series
	for i, k := range keys {
		if k == "" {
			continue
		}
		sub, err := t.Where(group, k)
		if err != nil {
			return "", err
		}
		s, err := r.series(sub, x, y, k, paletteColor(i))
		if errors.Is(err, ErrNoData) {
			r.log.Warn("Group has no plottable values", zap.String("group", k))
			continue
		}
		if err != nil {
			return "", fmt.Errorf("grouped time series %s: %w", k, err)
		}
		all = append(all, s)
	}
	if len(all) == 0 {
		return "", fmt.Errorf("grouped time series: %w", ErrNoData)
	}
	opts := SeriesOptions{Title: "Participants Over Time by Event Type"}.withDefaults()
	return r.saveChart(r.lineChart(opts, all...), "timeseries_grouped_plot.png")
}

// GenderTimeSeries plots participants_m and participants_f over start.
func (r *Renderer) GenderTimeSeries(t *table.Table) (string, error) {
	male, err := r.series(t, "start", "participants_m", "Male Participants", drawing.ColorFromHex("0000ff"))
	if err != nil {
		return "", fmt.Errorf("gender time series: %w", err)
	}
	female, err := r.series(t, "start", "participants_f", "Female Participants", drawing.ColorFromHex("ffa500"))
	if err != nil {
		return "", fmt.Errorf("gender time series: %w", err)
	}
	opts := SeriesOptions{Title: "Number of Male and Female Participants Over Time"}.withDefaults()
	return r.saveChart(r.lineChart(opts, male, female), "timeseries_gender_plot.png")
}

// AnomalyLabel annotates the 1994 winter games.
const AnomalyLabel = "Winter 1994 Paralympics"

// Anomalies plots participants over start and annotates the 1994 winter games.
func (r *Renderer) Anomalies(t *table.Table) (string, error) {
	s, err := r.series(t, "start", "participants", "Participants", paletteColor(0))
	if err != nil {
		return "", fmt.Errorf("anomalies: %w", err)
	}
	opts := SeriesOptions{Title: "Participants Over Time with Anomalies"}.withDefaults()
	ch := r.lineChart(opts, s)
	if at, y, ok := r.findAnomaly(t); ok {
		ch.Series = append(ch.Series, chart.AnnotationSeries{
			Annotations: []chart.Value2{{XValue: chart.TimeToFloat64(at), YValue: y, Label: AnomalyLabel}},
		})
	} else {
		r.log.Warn("No 1994 winter event found to annotate")
	}
	return r.saveChart(ch, "participants_over_time_with_anomalies.png")
}

func (r *Renderer) findAnomaly(t *table.Table) (time.Time, float64, bool) {
	if !t.Has("type") {
		return time.Time{}, 0, false
	}
	types, starts, ys := t.Column("type"), t.Column("start"), t.Column("participants")
	for i := range starts {
		d, ok := transform.ParseDate(starts[i], r.opt.DateLayouts)
		if !ok || d.Year() != 1994 || transform.NormalizeType(types[i]) != "winter" {
			continue
		}
		if y, ok := table.ParseNumber(ys[i]); ok {
			return d, y, true
		}
	}
	return time.Time{}, 0, false
}

func (r *Renderer) filterType(t *table.Table, eventType string) (*table.Table, error) {
	if err := requireColumns(t, "type"); err != nil {
		return nil, err
	}
	sub, err := t.Where("type", eventType)
	if errors.Is(err, table.ErrEmpty) {
		return nil, fmt.Errorf("no %s events: %w", eventType, ErrNoData)
	}
	return sub, err
}

// series pairs parsed dates in x with numbers in y, sorted by date. Rows
// where either side does not parse are skipped.
func (r *Renderer) series(t *table.Table, x, y, name string, c drawing.Color) (chart.TimeSeries, error) {
	if err := requireColumns(t, x, y); err != nil {
		return chart.TimeSeries{}, err
	}
	type point struct {
		at time.Time
		v  float64
	}
	xs, ys := t.Column(x), t.Column(y)
	var pts []point
	for i := range xs {
		d, ok := transform.ParseDate(xs[i], r.opt.DateLayouts)
		if !ok {
			continue
		}
		v, ok := table.ParseNumber(ys[i])
		if !ok {
			continue
		}
		pts = append(pts, point{d, v})
	}
	if len(pts) == 0 {
		return chart.TimeSeries{}, ErrNoData
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].at.Before(pts[j].at) })
	s := chart.TimeSeries{
		Name:  name,
		Style: chart.Style{StrokeColor: c, StrokeWidth: 2},
	}
	for _, p := range pts {
		s.XValues = append(s.XValues, p.at)
		s.YValues = append(s.YValues, p.v)
	}
	if len(pts) == 1 {
		// a single point has a zero x range
		s.XValues = append(s.XValues, pts[0].at.AddDate(0, 0, 1))
		s.YValues = append(s.YValues, pts[0].v)
	}
	return s, nil
}

func (r *Renderer) lineChart(opts SeriesOptions, series ...chart.Series) chart.Chart {
	lo, hi := 0.0, 1.0
	for _, s := range series {
		if ts, ok := s.(chart.TimeSeries); ok {
			for _, v := range ts.YValues {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	ch := chart.Chart{
		Title:      opts.Title,
		Width:      r.opt.Width,
		Height:     r.opt.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           opts.XLabel,
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
		},
		YAxis: chart.YAxis{
			Name:  opts.YLabel,
			Range: &chart.ContinuousRange{Min: lo, Max: hi * 1.1},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch
}

func (r *Renderer) renderChart(ch chart.Chart) (image.Image, error) {
	if ch.Width == 0 {
		ch.Width, ch.Height = r.opt.Width/2, r.opt.Height/2
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	return img, nil
}

func (r *Renderer) saveChart(ch chart.Chart, name string) (string, error) {
	img, err := r.renderChart(ch)
	if err != nil {
		return "", err
	}
	return r.save(img, name)
}

func (r *Renderer) save(img image.Image, name string) (string, error) {
	if err := utils.EnsureDir(r.opt.OutDir); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	path := filepath.Join(r.opt.OutDir, name)
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	r.log.Info("Saved chart", zap.String("path", path))
	return path, nil
}

// grid lays panels out row-major, ncols per row, on a white background.
func grid(panels []image.Image, ncols int) image.Image {
	if len(panels) == 1 {
		return panels[0]
	}
	cw, ch := 0, 0
	for _, p := range panels {
		b := p.Bounds()
		cw = max(cw, b.Dx())
		ch = max(ch, b.Dy())
	}
	nrows := (len(panels) + ncols - 1) / ncols
	out := image.NewRGBA(image.Rect(0, 0, cw*ncols, ch*nrows))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	for i, p := range panels {
		at := image.Pt((i%ncols)*cw, (i/ncols)*ch)
		draw.Draw(out, p.Bounds().Sub(p.Bounds().Min).Add(at), p, p.Bounds().Min, draw.Over)
	}
	return out
}

// histogramColumns picks a near-square grid width for n panels.
func histogramColumns(n int) int {
	return int(math.Ceil(math.Sqrt(float64(n))))
}

func requireColumns(t *table.Table, cols ...string) error {
	if _, missing := t.Present(cols); len(missing) > 0 {
		return fmt.Errorf("unknown columns %s", strings.Join(missing, ", "))
	}
	return nil
}

func numericValues(t *table.Table, col string) []float64 {
	var out []float64
	for _, v := range t.Column(col) {
		if x, ok := table.ParseNumber(v); ok {
			out = append(out, x)
		}
	}
	return out
}
