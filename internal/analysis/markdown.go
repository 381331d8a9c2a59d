package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DataTypes renders one "name: type" line per column.
func (r *Report) DataTypes() string {
	var b strings.Builder
	width := 0
	for _, c := range r.Cols {
		width = max(width, len(c.Name))
	}
	for _, c := range r.Cols {
		fmt.Fprintf(&b, "%-*s  %s\n", width, c.Name, c.Type)
	}
	return b.String()
}

// Statistics renders count/mean/std/min/quartiles/max for numeric columns.
func (r *Report) Statistics() string {
	var b strings.Builder
	b.WriteString("| stat |")
	var nums []ColumnSummary
	for _, c := range r.Cols {
		if c.Kind == KindNumeric {
			nums = append(nums, c)
			fmt.Fprintf(&b, " %s |", safeName(c.Name))
		}
	}
	if len(nums) == 0 {
		return "(no numeric columns)\n"
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---|", len(nums)))
	b.WriteString("\n")
	rows := []struct {
		label string
		get   func(ColumnSummary) float64
	}{
		{"count", func(c ColumnSummary) float64 { return float64(c.NonNull) }},
		{"mean", func(c ColumnSummary) float64 { return c.Mean }},
		{"std", func(c ColumnSummary) float64 { return c.Std }},
		{"min", func(c ColumnSummary) float64 { return c.Min }},
		{"25%", func(c ColumnSummary) float64 { return c.Q1 }},
		{"50%", func(c ColumnSummary) float64 { return c.Median }},
		{"75%", func(c ColumnSummary) float64 { return c.Q3 }},
		{"max", func(c ColumnSummary) float64 { return c.Max }},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s |", row.label)
		for _, c := range nums {
			fmt.Fprintf(&b, " %.4g |", row.get(c))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders a compact report suitable for the terminal or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "Shape: %d rows x %d columns\n\n", r.Rows, len(r.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		fmt.Fprintf(&b, "- %s: %s/%s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Type, c.Kind, c.NonNull, missPct)
		switch c.Kind {
		case KindNumeric:
			fmt.Fprintf(&b, ": min %.4g, median %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Median, c.Max, c.Mean, c.Std)
			if c.OutlierThreshold > 0 {
				fmt.Fprintf(&b, "; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
				if c.OutliersMaxAbsZ > 0 {
					fmt.Fprintf(&b, " (max |z|≈%.2f)", c.OutliersMaxAbsZ)
				}
			}
		case KindDatetime:
			fmt.Fprintf(&b, ": %s to %s", c.First.Format("2006-01-02"), c.Last.Format("2006-01-02"))
		case KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Value), kv.Count)
				}
				if c.Unique > len(c.TopValues) {
					fmt.Fprintf(&b, "; unique=%d", c.Unique)
				}
			}
		case KindText:
			if len(c.ExampleTexts) > 0 {
				b.WriteString(": e.g. ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			fmt.Fprintf(&b, "- %s (n=%d)\n", safeVal(g.Key), g.Size)
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys[:min(6, len(keys))] {
				m := g.Metrics[k]
				fmt.Fprintf(&b, "  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max)
			}
		}
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		for _, p := range pairs[:min(10, len(pairs))] {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
		}
	}

	if len(r.Head) > 0 {
		b.WriteString("\n[HEAD]\n")
		r.writeRows(&b, r.Head)
	}
	if len(r.Tail) > 0 && r.Rows > len(r.Head) {
		b.WriteString("\n[TAIL]\n")
		r.writeRows(&b, r.Tail)
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (r *Report) writeRows(b *strings.Builder, rows [][]string) {
	b.WriteString("| ")
	for i, c := range r.Cols {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeName(c.Name))
	}
	b.WriteString(" |\n|")
	b.WriteString(strings.Repeat(" --- |", len(r.Cols)))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if len(val) > 80 {
				val = val[:77] + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
