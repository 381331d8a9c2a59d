// Package analysis describes a table: storage types, per-column statistics,
// head and tail rows, optional group and correlation summaries.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/paraprep/internal/table"
)

// Options controls what Summarize computes.
type Options struct {
	// SampleRows is the number of head and tail rows to keep; 0 means 5.
	SampleRows int
	// GroupBy computes per-group numeric summaries for the given column.
	GroupBy string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). Counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns the options used by the describe command.
func DefaultOptions() Options {
	return Options{SampleRows: 5, Outliers: true, OutlierThreshold: 3.5}
}

// Kinds of column content.
const (
	KindNumeric     = "numeric"
	KindDatetime    = "datetime"
	KindCategorical = "categorical"
	KindText        = "text"
	KindUnknown     = "unknown"
)

// Report is a text-friendly description of a table.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Head     [][]string
	Tail     [][]string
	Groups   []GroupResult
	Corr     *CorrMatrix
	Warnings []string
}

// ColumnSummary captures storage type, inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Type    string // storage type of the underlying series
	Kind    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min, Q1, Median, Q3, Max float64
	Mean, Std                float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
	// Datetime range
	First, Last time.Time
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

type colAcc struct {
	nums   []float64
	numIdx []int // row of each value in nums
	dates  []time.Time
	cats   map[string]int
	exText []string
	txtCnt int
}

// Summarize computes a Report for t.
func Summarize(t *table.Table, opt Options) *Report {
	rows, _ := t.Shape()
	rep := &Report{Name: t.Name, Rows: rows}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	recs := t.Records()
	body := recs[1:]
	if len(body) > 0 {
		rep.Head = body[:min(sampleRows, len(body))]
		rep.Tail = body[max(0, len(body)-sampleRows):]
	}

	names := t.Names()
	accs := make([]*colAcc, len(names))
	numCols := []int{}
	for j, name := range names {
		c := &colAcc{cats: map[string]int{}}
		accs[j] = c
		s := ColumnSummary{Name: name, Type: t.ColumnType(name)}
		for i, v := range t.Column(name) {
			v = strings.TrimSpace(v)
			if table.IsNull(v) {
				s.Missing++
				continue
			}
			s.NonNull++
			// Try numeric first
			if x, ok := table.ParseNumber(v); ok {
				c.nums = append(c.nums, x)
				c.numIdx = append(c.numIdx, i)
				continue
			}
			// Try datetime
			if d, ok := parseTimeMaybe(v); ok {
				c.dates = append(c.dates, d)
				continue
			}
			// Text/categorical
			c.txtCnt++
			if len(v) <= 64 { // treat short tokens as categories
				c.cats[v]++
			}
			if len(c.exText) < 3 {
				c.exText = append(c.exText, v)
			}
		}
		switch {
		case len(c.nums) > 0 && len(c.nums) >= len(c.dates) && len(c.nums) >= c.txtCnt:
			s.Kind = KindNumeric
			describeNumeric(&s, c.nums, opt)
			numCols = append(numCols, j)
		case len(c.dates) > 0 && len(c.dates) >= c.txtCnt:
			s.Kind = KindDatetime
			sort.Slice(c.dates, func(a, b int) bool { return c.dates[a].Before(c.dates[b]) })
			s.First, s.Last = c.dates[0], c.dates[len(c.dates)-1]
		case len(c.cats) > 0:
			s.Kind = KindCategorical
			s.TopValues = topValues(c.cats, 8)
			s.Unique = len(c.cats)
		case c.txtCnt > 0:
			s.Kind = KindText
			s.ExampleTexts = c.exText
		default:
			s.Kind = KindUnknown
		}
		rep.Cols = append(rep.Cols, s)
	}

	if opt.GroupBy != "" {
		if !t.Has(opt.GroupBy) {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("group-by column %q not found", opt.GroupBy))
		} else {
			rep.Groups = groupSummaries(t.Column(opt.GroupBy), names, accs, numCols)
		}
	}
	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = correlations(rows, names, accs, numCols)
	}
	return rep
}

func describeNumeric(s *ColumnSummary, vals []float64, opt Options) {
	ser := series.Floats(vals)
	s.Min, s.Max = ser.Min(), ser.Max()
	s.Mean = ser.Mean()
	if len(vals) > 1 {
		s.Std = ser.StdDev()
	}
	// quantiles interpolate between ranks, as pandas' describe does
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s.Q1 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.Q3 = Quantile(sorted, 0.75)
	uniq := map[float64]struct{}{}
	for _, x := range vals {
		uniq[x] = struct{}{}
	}
	s.Unique = len(uniq)

	if !opt.Outliers || len(vals) < 8 {
		return
	}
	median, mad := medianMAD(vals)
	thr := opt.OutlierThreshold
	if thr <= 0 {
		thr = 3.5
	}
	s.OutlierThreshold = thr
	if mad == 0 {
		return
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			s.OutliersCount++
		}
		if az > s.OutliersMaxAbsZ {
			s.OutliersMaxAbsZ = az
		}
	}
}

func topValues(cats map[string]int, n int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > n {
		tops = tops[:n]
	}
	return tops
}

func groupSummaries(keys, names []string, accs []*colAcc, numCols []int) []GroupResult {
	byKey := map[string]*GroupResult{}
	for _, k := range keys {
		g := byKey[k]
		if g == nil {
			g = &GroupResult{Key: k, Metrics: map[string]NumSummary{}}
			byKey[k] = g
		}
		g.Size++
	}
	for _, j := range numCols {
		c := accs[j]
		sums := map[string]float64{}
		for n, x := range c.nums {
			k := keys[c.numIdx[n]]
			m, ok := byKey[k].Metrics[names[j]]
			if !ok {
				m = NumSummary{Min: x, Max: x}
			}
			m.Count++
			m.Min = math.Min(m.Min, x)
			m.Max = math.Max(m.Max, x)
			sums[k] += x
			m.Mean = sums[k] / float64(m.Count)
			byKey[k].Metrics[names[j]] = m
		}
	}
	out := make([]GroupResult, 0, len(byKey))
	for _, g := range byKey {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

// correlations uses only rows where both columns are numeric.
func correlations(rows int, names []string, accs []*colAcc, numCols []int) *CorrMatrix {
	dense := make([][]float64, len(numCols))
	for a, j := range numCols {
		col := make([]float64, rows)
		for i := range col {
			col[i] = math.NaN()
		}
		for n, x := range accs[j].nums {
			col[accs[j].numIdx[n]] = x
		}
		dense[a] = col
	}
	n := len(numCols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for a := range numCols {
		m.Columns[a] = names[numCols[a]]
		m.Values[a] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		m.Values[a][a] = 1
		for b := a + 1; b < n; b++ {
			r := pearson(dense[a], dense[b])
			m.Values[a][b], m.Values[b][a] = r, r
		}
	}
	return m
}

func pearson(xs, ys []float64) float64 {
	var n, sumX, sumY, sumXX, sumYY, sumXY float64
	for i := range xs {
		x, y := xs[i], ys[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		n++
		sumX += x
		sumY += y
		sumXX += x * x
		sumYY += y * y
		sumXY += x * y
	}
	if n < 2 {
		return 0
	}
	denom := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denom == 0 {
		return 0
	}
	r := (n*sumXY - sumX*sumY) / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		"02/01/2006", "2/1/2006", time.RFC3339, "2006-01-02", "2006/01/02",
		"2006-01-02 15:04", "2006-01-02 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = Quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = Quantile(dev, 0.5)
	return
}

// Quantile interpolates linearly between closest ranks of sorted.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
