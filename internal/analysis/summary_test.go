package analysis

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/KaramelBytes/paraprep/internal/table"
)

func eventsTable(t *testing.T) *table.Table {
	t.Helper()
	records := [][]string{{"type", "start", "participants_m", "participants_f", "country"}}
	m := []int{130, 148, 160, 180, 200, 210, 230, 250, 260, 2000}
	for i, v := range m {
		typ := "summer"
		if i%2 == 1 {
			typ = "winter"
		}
		records = append(records, []string{
			typ,
			"0" + strconv.Itoa(i%9+1) + "/03/19" + strconv.Itoa(60+4*i),
			strconv.Itoa(v),
			strconv.Itoa(v / 2),
			[]string{"Italy", "Japan", "Italy", ""}[i%4],
		})
	}
	tb, err := table.FromRecords("events.csv", records)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return tb
}

func colByName(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	for _, c := range rep.Cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %s not in report", name)
	return ColumnSummary{}
}

func TestSummarizeKindsAndStats(t *testing.T) {
	opt := DefaultOptions()
	opt.SampleRows = 3
	rep := Summarize(eventsTable(t), opt)

	if rep.Name != "events.csv" || rep.Rows != 10 || len(rep.Cols) != 5 {
		t.Fatalf("unexpected shape: name=%s rows=%d cols=%d", rep.Name, rep.Rows, len(rep.Cols))
	}
	if len(rep.Head) != 3 || len(rep.Tail) != 3 {
		t.Fatalf("head/tail = %d/%d, want 3/3", len(rep.Head), len(rep.Tail))
	}
	if rep.Head[0][0] != "summer" || rep.Tail[2][2] != "2000" {
		t.Fatalf("unexpected head/tail rows: %v %v", rep.Head[0], rep.Tail[2])
	}

	m := colByName(t, rep, "participants_m")
	if m.Kind != KindNumeric {
		t.Fatalf("participants_m kind = %s", m.Kind)
	}
	if m.Min != 130 || m.Max != 2000 {
		t.Fatalf("min/max = %v/%v", m.Min, m.Max)
	}
	if m.Median != 205 {
		t.Fatalf("median = %v, want 205", m.Median)
	}
	if m.OutliersCount != 1 {
		t.Fatalf("outliers = %d, want 1", m.OutliersCount)
	}
	if math.Abs(m.Mean-376.8) > 1e-9 {
		t.Fatalf("mean = %v", m.Mean)
	}

	if k := colByName(t, rep, "start").Kind; k != KindDatetime {
		t.Fatalf("start kind = %s", k)
	}
	c := colByName(t, rep, "country")
	if c.Kind != KindCategorical || c.Missing != 2 || c.Unique != 2 {
		t.Fatalf("country summary = %+v", c)
	}
	if c.TopValues[0].Value != "Italy" || c.TopValues[0].Count != 5 {
		t.Fatalf("top value = %+v", c.TopValues[0])
	}
}

func TestSummarizeGroupsAndCorrelations(t *testing.T) {
	opt := DefaultOptions()
	opt.GroupBy = "type"
	opt.Correlations = true
	rep := Summarize(eventsTable(t), opt)

	if len(rep.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(rep.Groups))
	}
	if rep.Groups[0].Key != "summer" || rep.Groups[0].Size != 5 {
		t.Fatalf("first group = %+v", rep.Groups[0])
	}
	if got := rep.Groups[0].Metrics["participants_m"].Min; got != 130 {
		t.Fatalf("summer min = %v", got)
	}
	if rep.Corr == nil || len(rep.Corr.Columns) != 2 {
		t.Fatalf("corr = %+v", rep.Corr)
	}
	if r := rep.Corr.Values[0][1]; r < 0.99 {
		t.Fatalf("r = %v, want ~1", r)
	}

	opt.GroupBy = "nope"
	rep = Summarize(eventsTable(t), opt)
	if len(rep.Warnings) != 1 {
		t.Fatalf("warnings = %v", rep.Warnings)
	}
}

func TestMarkdownSections(t *testing.T) {
	opt := DefaultOptions()
	opt.GroupBy = "type"
	opt.Correlations = true
	rep := Summarize(eventsTable(t), opt)

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: events.csv",
		"Shape: 10 rows x 5 columns",
		"- participants_m: string/numeric",
		"outliers: 1 above |z|>3.5",
		"- country: string/categorical",
		"[GROUP-BY SUMMARY]",
		"- summer (n=5)",
		"[CORRELATIONS]",
		"participants_m ~ participants_f",
		"[HEAD]",
		"[TAIL]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	dt := rep.DataTypes()
	if !strings.Contains(dt, "participants_m  string") {
		t.Fatalf("data types: %s", dt)
	}
	stats := rep.Statistics()
	if !strings.Contains(stats, "| 50% |") || !strings.Contains(stats, "participants_f") {
		t.Fatalf("statistics: %s", stats)
	}
}

func TestQuantile(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	cases := map[float64]float64{0: 1, 0.25: 1.75, 0.5: 2.5, 1: 4}
	for q, want := range cases {
		if got := Quantile(s, q); math.Abs(got-want) > 1e-12 {
			t.Fatalf("Quantile(%v) = %v, want %v", q, got, want)
		}
	}
	if Quantile(nil, 0.5) != 0 {
		t.Fatalf("empty quantile should be 0")
	}
}

func TestNumericMoments(t *testing.T) {
	tb, err := table.FromRecords("m", [][]string{{"x", "y"}, {"1", "5"}, {"3", ""}})
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	rep := Summarize(tb, Options{})
	x, y := rep.Cols[0], rep.Cols[1]
	if x.Mean != 2 || x.Min != 1 || x.Max != 3 {
		t.Fatalf("x mean/min/max = %v/%v/%v", x.Mean, x.Min, x.Max)
	}
	// sample standard deviation
	if math.Abs(x.Std-math.Sqrt2) > 1e-12 {
		t.Fatalf("x std = %v, want sqrt(2)", x.Std)
	}
	// one value has no spread
	if y.Std != 0 || y.Mean != 5 {
		t.Fatalf("y std/mean = %v/%v", y.Std, y.Mean)
	}
}
