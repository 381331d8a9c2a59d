// Package validate runs data-quality checks over a prepared table.
// Checks never fail hard: each returns Results that the caller reports.
package validate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/paraprep/internal/table"
)

// Check names.
const (
	CheckNameUnique     = "unique"
	CheckNameNotNull    = "not_null"
	CheckNameDateFormat = "date_format"
	CheckNameDuration   = "duration"
)

// Severity of a Result.
type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Result is the outcome of one check against one column (or row, for the
// row-level checks).
type Result struct {
	Check    string   `json:"check"`
	Column   string   `json:"column,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Rows     []int    `json:"rows,omitempty"`
	Value    string   `json:"value,omitempty"`
	Expected string   `json:"expected,omitempty"`
	Found    string   `json:"found,omitempty"`
}

// OK reports whether the result is a pass.
func (r Result) OK() bool { return r.Severity == SeverityOK }

// Report collects the results of a validation run.
type Report struct {
	Table   string   `json:"table"`
	Rows    int      `json:"rows"`
	Results []Result `json:"results"`
}

// Findings returns the non-passing results.
func (r *Report) Findings() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// OK reports whether every check passed.
func (r *Report) OK() bool { return len(r.Findings()) == 0 }

// Counts returns the number of findings per check name. Checks that only
// passed are present with a zero count.
func (r *Report) Counts() map[string]int {
	out := map[string]int{}
	for _, res := range r.Results {
		if _, ok := out[res.Check]; !ok {
			out[res.Check] = 0
		}
		if !res.OK() {
			out[res.Check]++
		}
	}
	return out
}

// Constraints lists the columns each check applies to.
type Constraints struct {
	Unique     []string `mapstructure:"unique" yaml:"unique" json:"unique"`
	NotNull    []string `mapstructure:"not_null" yaml:"not_null" json:"not_null"`
	Dates      []string `mapstructure:"dates" yaml:"dates" json:"dates"`
	DateLayout string   `mapstructure:"date_layout" yaml:"date_layout" json:"date_layout"`
}

// DefaultDateLayout is the DD/MM/YYYY layout used by the prepared files.
const DefaultDateLayout = "02/01/2006"

// DefaultConstraints returns the checks applied to the prepared events file.
func DefaultConstraints() Constraints {
	return Constraints{
		Unique:     []string{"event_code", "year", "country", "host"},
		NotNull:    []string{"type", "year", "country", "host", "start", "end", "duration", "Code"},
		Dates:      []string{"start", "end"},
		DateLayout: DefaultDateLayout,
	}
}

func missingColumn(check, col string) Result {
	return Result{
		Check:    check,
		Column:   col,
		Severity: SeverityError,
		Message:  fmt.Sprintf("Column '%s' not found in the dataset.", col),
	}
}

// CheckUnique reports, per column, whether its values are unique. A finding
// lists every row that shares its value with another row.
func CheckUnique(t *table.Table, cols []string) []Result {
	var out []Result
	for _, col := range cols {
		if !t.Has(col) {
			out = append(out, missingColumn(CheckNameUnique, col))
			continue
		}
		groups := map[string][]int{}
		for i, v := range t.Column(col) {
			groups[v] = append(groups[v], i)
		}
		var dup []int
		for _, rows := range groups {
			if len(rows) > 1 {
				dup = append(dup, rows...)
			}
		}
		if len(dup) == 0 {
			out = append(out, Result{Check: CheckNameUnique, Column: col, Severity: SeverityOK,
				Message: fmt.Sprintf("Column '%s' has unique values.", col)})
			continue
		}
		sort.Ints(dup)
		out = append(out, Result{
			Check:    CheckNameUnique,
			Column:   col,
			Severity: SeverityWarning,
			Rows:     dup,
			Message:  fmt.Sprintf("Column '%s' does not have unique values. Duplicates at rows: %s", col, formatRows(dup)),
		})
	}
	return out
}

// CheckNulls reports, per column, the number and positions of null cells.
func CheckNulls(t *table.Table, cols []string) []Result {
	var out []Result
	for _, col := range cols {
		if !t.Has(col) {
			out = append(out, missingColumn(CheckNameNotNull, col))
			continue
		}
		var rows []int
		for i, v := range t.Column(col) {
			if table.IsNull(v) {
				rows = append(rows, i)
			}
		}
		if len(rows) == 0 {
			out = append(out, Result{Check: CheckNameNotNull, Column: col, Severity: SeverityOK,
				Message: fmt.Sprintf("Column '%s' has no null values.", col)})
			continue
		}
		out = append(out, Result{
			Check:    CheckNameNotNull,
			Column:   col,
			Severity: SeverityWarning,
			Rows:     rows,
			Message:  fmt.Sprintf("Column '%s' has %d null values at rows: %s", col, len(rows), formatRows(rows)),
		})
	}
	return out
}

// CheckDateFormat emits one finding per cell that does not parse with layout.
// A column whose cells all parse yields a single passing result.
func CheckDateFormat(t *table.Table, cols []string, layout string) []Result {
	if layout == "" {
		layout = DefaultDateLayout
	}
	var out []Result
	for _, col := range cols {
		if !t.Has(col) {
			out = append(out, missingColumn(CheckNameDateFormat, col))
			continue
		}
		bad := 0
		for i, v := range t.Column(col) {
			if _, err := time.Parse(layout, v); err == nil {
				continue
			}
			bad++
			out = append(out, Result{
				Check:    CheckNameDateFormat,
				Column:   col,
				Severity: SeverityError,
				Rows:     []int{i},
				Value:    v,
				Message: fmt.Sprintf("Date format error in column '%s' at row %d: '%s' does not match format %s",
					col, i, v, layout),
			})
		}
		if bad == 0 {
			out = append(out, Result{Check: CheckNameDateFormat, Column: col, Severity: SeverityOK,
				Message: fmt.Sprintf("Column '%s' matches format %s.", col, layout)})
		}
	}
	return out
}

// CheckDuration recomputes end - start per row and compares it numerically
// with duration.
func CheckDuration(t *table.Table, layout string) []Result {
	if layout == "" {
		layout = DefaultDateLayout
	}
	if !t.Has("start") || !t.Has("end") || !t.Has("duration") {
		return []Result{{
			Check:    CheckNameDuration,
			Severity: SeverityError,
			Message:  "Columns 'start', 'end', or 'duration' not found in the dataset.",
		}}
	}
	starts, ends, durations := t.Column("start"), t.Column("end"), t.Column("duration")
	var out []Result
	for i := range starts {
		s, err := time.Parse(layout, starts[i])
		if err == nil {
			var e time.Time
			if e, err = time.Parse(layout, ends[i]); err == nil {
				days := int(e.Sub(s).Hours() / 24)
				expected := strconv.Itoa(days)
				// "15.0" and "15" are the same duration
				if found, ok := table.ParseNumber(durations[i]); !ok || found != float64(days) {
					out = append(out, Result{
						Check:    CheckNameDuration,
						Column:   "duration",
						Severity: SeverityError,
						Rows:     []int{i},
						Expected: expected,
						Found:    durations[i],
						Message:  fmt.Sprintf("Duration error at row %d: Expected %s, found %s", i, expected, durations[i]),
					})
				}
				continue
			}
		}
		out = append(out, Result{
			Check:    CheckNameDuration,
			Severity: SeverityError,
			Rows:     []int{i},
			Message:  fmt.Sprintf("Date parsing error at row %d: %v", i, err),
		})
	}
	if len(out) == 0 {
		out = append(out, Result{Check: CheckNameDuration, Column: "duration", Severity: SeverityOK,
			Message: "Column 'duration' matches end - start for every row."})
	}
	return out
}

// CheckColumnConstraints runs every check with the configured column lists.
func CheckColumnConstraints(t *table.Table, c Constraints) *Report {
	r := &Report{Table: t.Name, Rows: t.Len()}
	r.Results = append(r.Results, CheckUnique(t, c.Unique)...)
	r.Results = append(r.Results, CheckNulls(t, c.NotNull)...)
	r.Results = append(r.Results, CheckDateFormat(t, c.Dates, c.DateLayout)...)
	r.Results = append(r.Results, CheckDuration(t, c.DateLayout)...)
	return r
}

func formatRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = strconv.Itoa(r)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
