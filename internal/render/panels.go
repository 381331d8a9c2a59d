package render

import (
	"math"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/paraprep/internal/analysis"
)

// HistogramCounts splits [min, max] of vals into bins equal-width bins.
// The last bin is closed on the right. edges has bins+1 entries.
func HistogramCounts(vals []float64, bins int) (counts []int, edges []float64) {
	if len(vals) == 0 || bins <= 0 {
		return nil, nil
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(bins)
	edges = make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi
	counts = make([]int, bins)
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	return counts, edges
}

func histogramChart(title string, vals []float64, bins int) chart.Chart {
	counts, edges := HistogramCounts(vals, bins)
	xs := []float64{edges[0]}
	ys := []float64{0}
	top := 1.0
	for i, c := range counts {
		xs = append(xs, edges[i], edges[i+1])
		ys = append(ys, float64(c), float64(c))
		top = math.Max(top, float64(c))
	}
	xs = append(xs, edges[len(edges)-1])
	ys = append(ys, 0)
	return chart.Chart{
		Title: title,
		XAxis: chart.XAxis{
			Name:  "number value",
			Range: &chart.ContinuousRange{Min: edges[0], Max: edges[len(edges)-1]},
		},
		YAxis: chart.YAxis{
			Name:  "frequency",
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Series: []chart.Series{chart.ContinuousSeries{
			Name:    title,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: paletteColor(0),
				StrokeWidth: 1,
				FillColor:   paletteColor(0).WithAlpha(160),
			},
		}},
	}
}

// Box holds the five-number summary drawn by a box diagram. Whiskers reach
// the most extreme values within 1.5 IQR of the quartiles.
type Box struct {
	Q1, Median, Q3 float64
	Low, High      float64
	Outliers       []float64
}

// BoxStats computes the box diagram summary of vals.
func BoxStats(vals []float64) Box {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	b := Box{
		Q1:     analysis.Quantile(sorted, 0.25),
		Median: analysis.Quantile(sorted, 0.5),
		Q3:     analysis.Quantile(sorted, 0.75),
	}
	iqr := b.Q3 - b.Q1
	loFence, hiFence := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.Low, b.High = b.Q1, b.Q3
	for _, v := range sorted {
		if v < loFence || v > hiFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		b.Low = math.Min(b.Low, v)
		b.High = math.Max(b.High, v)
	}
	return b
}

func boxChart(col string, vals []float64) chart.Chart {
	b := BoxStats(vals)
	line := func(xs, ys []float64, c drawing.Color) chart.Series {
		return chart.ContinuousSeries{XValues: xs, YValues: ys, Style: chart.Style{StrokeColor: c, StrokeWidth: 1.5}}
	}
	edge := paletteColor(0)
	series := []chart.Series{
		line([]float64{0.75, 1.25, 1.25, 0.75, 0.75}, []float64{b.Q1, b.Q1, b.Q3, b.Q3, b.Q1}, edge),
		line([]float64{0.75, 1.25}, []float64{b.Median, b.Median}, paletteColor(1)),
		line([]float64{1, 1}, []float64{b.Q1, b.Low}, edge),
		line([]float64{1, 1}, []float64{b.Q3, b.High}, edge),
		line([]float64{0.875, 1.125}, []float64{b.Low, b.Low}, edge),
		line([]float64{0.875, 1.125}, []float64{b.High, b.High}, edge),
	}
	if len(b.Outliers) > 0 {
		xs := make([]float64, len(b.Outliers))
		for i := range xs {
			xs[i] = 1
		}
		series = append(series, chart.ContinuousSeries{
			XValues: xs,
			YValues: b.Outliers,
			Style:   chart.Style{StrokeWidth: 0, StrokeColor: drawing.ColorTransparent, DotWidth: 4, DotColor: edge},
		})
	}

	lo, hi := b.Low, b.High
	for _, v := range b.Outliers {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	return chart.Chart{
		Title: col + " box diagram",
		XAxis: chart.XAxis{
			Name:  "number value",
			Range: &chart.ContinuousRange{Min: 0, Max: 2},
			Ticks: []chart.Tick{{Value: 0, Label: ""}, {Value: 1, Label: col}, {Value: 2, Label: ""}},
		},
		YAxis: chart.YAxis{
			Name:  "distribution",
			Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
		},
		Series: series,
	}
}
