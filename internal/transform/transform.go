// Package transform cleans and reshapes the Paralympics tables: integer
// coercion, date parsing, category normalization, column and row removal,
// the derived duration column, country-name remapping and the NPC code join.
package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/series"
	"go.uber.org/zap"

	"github.com/KaramelBytes/paraprep/internal/table"
)

// Column names the transformer knows about.
const (
	ColType     = "type"
	ColStart    = "start"
	ColEnd      = "end"
	ColDuration = "duration"
	ColCountry  = "country"
	ColName     = "Name"
	ColCode     = "Code"
)

// Options controls the fixed parts of data preparation.
type Options struct {
	// DateLayouts are tried in order; the first is used when writing dates back.
	DateLayouts []string
	// DropColumns are removed by PrepareData when present.
	DropColumns []string
}

// DefaultOptions returns the layouts and drop list used for the events dataset.
func DefaultOptions() Options {
	return Options{
		DateLayouts: []string{"02/01/2006", "2/1/2006"},
		DropColumns: []string{"URL", "disabilities_included", "highlights"},
	}
}

// Transformer applies column-level preparation steps to a table.
type Transformer struct {
	opt Options
	log *zap.Logger
}

// New returns a Transformer. A nil logger discards output.
func New(opt Options, log *zap.Logger) *Transformer {
	if log == nil {
		log = zap.NewNop()
	}
	if len(opt.DateLayouts) == 0 {
		opt.DateLayouts = DefaultOptions().DateLayouts
	}
	return &Transformer{opt: opt, log: log}
}

// PrepareData coerces intColumns to non-negative integers (nulls become 0),
// parses start/end dates, normalizes type, drops the configured columns and
// inserts duration after end. Absent columns are logged and skipped.
func (tr *Transformer) PrepareData(t *table.Table, intColumns []string) (*table.Table, error) {
	tr.log.Debug("Columns for preparation", zap.String("table", t.Name), zap.Strings("columns", t.Names()))
	var err error
	for _, col := range intColumns {
		if !t.Has(col) {
			tr.log.Warn("Column not found, skipping conversion", zap.String("column", col))
			continue
		}
		if t, err = tr.coerceInts(t, col); err != nil {
			return nil, err
		}
		tr.log.Info("Converted column to integers", zap.String("column", col))
	}

	for _, col := range []string{ColStart, ColEnd} {
		if !t.Has(col) {
			continue
		}
		if t, err = tr.parseDates(t, col); err != nil {
			return nil, err
		}
	}

	if t.Has(ColType) {
		vals := t.Column(ColType)
		for i, v := range vals {
			vals[i] = NormalizeType(v)
		}
		if t, err = t.Set(ColType, vals, series.String); err != nil {
			return nil, err
		}
		tr.log.Info("Processed type column (stripped whitespace and converted to lowercase)")
	}

	found, _ := t.Present(tr.opt.DropColumns)
	if t, err = t.DropColumns(tr.opt.DropColumns...); err != nil {
		return nil, err
	}
	if len(found) > 0 {
		tr.log.Info("Dropped columns", zap.Strings("columns", found))
	}

	if t.Has(ColStart) && t.Has(ColEnd) {
		if t, err = tr.insertDuration(t); err != nil {
			return nil, err
		}
		tr.log.Info("Added duration column from the difference between start and end")
	}
	tr.log.Debug("Columns after preparation", zap.Strings("columns", t.Names()))
	return t, nil
}

func (tr *Transformer) coerceInts(t *table.Table, col string) (*table.Table, error) {
	vals := t.Column(col)
	for i, v := range vals {
		n, ok := CoerceCount(v)
		if !ok {
			tr.log.Warn("Replaced invalid count with 0",
				zap.String("column", col), zap.Int("row", i), zap.String("value", v))
		}
		vals[i] = strconv.Itoa(n)
	}
	return t.Set(col, vals, series.Int)
}

func (tr *Transformer) parseDates(t *table.Table, col string) (*table.Table, error) {
	vals := t.Column(col)
	bad := 0
	for i, v := range vals {
		d, ok := tr.ParseDate(v)
		if !ok {
			if !table.IsNull(v) {
				tr.log.Debug("Unparseable date", zap.String("column", col), zap.Int("row", i), zap.String("value", v))
			}
			bad++
			vals[i] = ""
			continue
		}
		vals[i] = d.Format(tr.opt.DateLayouts[0])
	}
	if bad > 0 {
		tr.log.Warn("Dates left unparsed", zap.String("column", col), zap.Int("count", bad))
	}
	return t.Set(col, vals, series.String)
}

func (tr *Transformer) insertDuration(t *table.Table) (*table.Table, error) {
	starts, ends := t.Column(ColStart), t.Column(ColEnd)
	durations := make([]string, len(starts))
	for i := range starts {
		s, okS := tr.ParseDate(starts[i])
		e, okE := tr.ParseDate(ends[i])
		if !okS || !okE {
			durations[i] = ""
			continue
		}
		durations[i] = strconv.Itoa(DayDiff(s, e))
	}
	if t.Has(ColDuration) {
		var err error
		if t, err = t.DropColumns(ColDuration); err != nil {
			return nil, err
		}
	}
	return t.InsertAfter(ColEnd, ColDuration, durations, series.Int)
}

// ParseDate parses v with the configured layouts.
func (tr *Transformer) ParseDate(v string) (time.Time, bool) {
	return ParseDate(v, tr.opt.DateLayouts)
}

// HandleMissingValues drops the Name column and the rows at the given
// positions, then renumbers the remaining rows.
func (tr *Transformer) HandleMissingValues(t *table.Table, rows []int) (*table.Table, error) {
	tr.log.Info("Handling missing values")
	var err error
	if t.Has(ColName) {
		if t, err = t.DropColumns(ColName); err != nil {
			return nil, err
		}
		tr.log.Info("Dropped column", zap.String("column", ColName))
	}
	if t, err = t.DropRows(rows...); err != nil {
		return nil, err
	}
	tr.log.Info("Dropped rows and reset index", zap.Ints("rows", rows), zap.Int("remaining", t.Len()))
	return t, nil
}

// ReplaceCountryNames maps the country column through CanonicalCountry.
func (tr *Transformer) ReplaceCountryNames(t *table.Table) (*table.Table, error) {
	if !t.Has(ColCountry) {
		return nil, fmt.Errorf("replace country names: unknown column %s", ColCountry)
	}
	vals := t.Column(ColCountry)
	for i, v := range vals {
		vals[i] = CanonicalCountry(v)
	}
	out, err := t.Set(ColCountry, vals, series.String)
	if err != nil {
		return nil, err
	}
	tr.log.Info("Replaced country names")
	return out, nil
}

// MergeCountryCodes left-joins events with the NPC code table on
// events.country == npc.Name.
func (tr *Transformer) MergeCountryCodes(events, npc *table.Table) (*table.Table, error) {
	merged, err := events.LeftJoin(npc, ColCountry, ColName)
	if err != nil {
		return nil, fmt.Errorf("merge country codes: %w", err)
	}
	unmatched := 0
	for _, c := range merged.Column(ColCode) {
		if c == "" {
			unmatched++
		}
	}
	tr.log.Info("Merged events with NPC codes", zap.Int("rows", merged.Len()), zap.Int("unmatched", unmatched))
	return merged, nil
}

var countryNames = map[string]string{
	"UK":     "Great Britain",
	"USA":    "United States of America",
	"Korea":  "Republic of Korea",
	"Russia": "Russian Federation",
	"China":  "People's Republic of China",
}

// CanonicalCountry returns the standardized name for a historical or common
// country name, or name unchanged when it has no mapping.
func CanonicalCountry(name string) string {
	if c, ok := countryNames[name]; ok {
		return c
	}
	return name
}

// NormalizeType trims surrounding whitespace and lower-cases s.
func NormalizeType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CoerceCount converts a count cell to a non-negative integer. Nulls become 0
// and report ok; unparseable or negative values become 0 and report !ok.
func CoerceCount(v string) (int, bool) {
	if table.IsNull(v) {
		return 0, true
	}
	f, ok := table.ParseNumber(v)
	if !ok || f < 0 {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

// ParseDate tries each layout in order.
func ParseDate(v string, layouts []string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if table.IsNull(v) {
		return time.Time{}, false
	}
	for _, l := range layouts {
		if d, err := time.Parse(l, v); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// DayDiff returns the whole number of days from start to end.
func DayDiff(start, end time.Time) int {
	return int(math.Floor(end.Sub(start).Hours() / 24))
}
