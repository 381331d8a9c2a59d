package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ErrEmpty is returned when a row filter matches nothing.
var ErrEmpty = errors.New("table has no rows")

// Table is an in-memory dataset of named columns backed by a gota DataFrame.
// Operations never mutate the receiver; they return a new Table.
type Table struct {
	Name string
	df   dataframe.DataFrame
}

// FromRecords builds a table from a header row followed by data rows.
// Every cell is loaded as text; short rows are padded to the header width.
// A header without rows gives a table with zero rows.
func FromRecords(name string, records [][]string) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("load %s: missing header", name)
	}
	if len(records) == 1 {
		return emptyTable(name, records[0])
	}
	ncol := len(records[0])
	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, ncol)
		copy(row, rec)
		rows[i] = row
	}
	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("load %s: %w", name, df.Err)
	}
	return &Table{Name: name, df: df}, nil
}

// emptyTable builds a zero-row table; gota's record loader rejects it.
func emptyTable(name string, header []string) (*Table, error) {
	cols := make([]series.Series, len(header))
	for i, h := range header {
		cols[i] = series.New([]string{}, series.String, h)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return nil, fmt.Errorf("load %s: %w", name, df.Err)
	}
	return &Table{Name: name, df: df}, nil
}

func (t *Table) derive(df dataframe.DataFrame, op string) (*Table, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("%s: %w", op, df.Err)
	}
	return &Table{Name: t.Name, df: df}, nil
}

// Frame exposes the underlying DataFrame.
func (t *Table) Frame() dataframe.DataFrame { return t.df }

// Names returns the column labels in order.
func (t *Table) Names() []string { return t.df.Names() }

// Len returns the number of rows.
func (t *Table) Len() int { return t.df.Nrow() }

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) { return t.df.Dims() }

// Has reports whether the table has the named column.
func (t *Table) Has(col string) bool {
	for _, n := range t.df.Names() {
		if n == col {
			return true
		}
	}
	return false
}

// Present filters cols down to the columns the table has, preserving order.
// The second result lists the names that were not found.
func (t *Table) Present(cols []string) (found, missing []string) {
	for _, c := range cols {
		if t.Has(c) {
			found = append(found, c)
		} else {
			missing = append(missing, c)
		}
	}
	return found, missing
}

// Column returns the text values of col with nulls rendered as "".
// It returns nil when the column does not exist.
func (t *Table) Column(col string) []string {
	if !t.Has(col) {
		return nil
	}
	vals := t.df.Col(col).Records()
	for i, v := range vals {
		if IsNull(v) {
			vals[i] = ""
		}
	}
	return vals
}

// ColumnType names the storage type of col ("string", "int", "float", "bool").
func (t *Table) ColumnType(col string) string {
	if !t.Has(col) {
		return ""
	}
	return string(t.df.Col(col).Type())
}

// Records returns the header followed by every row, nulls rendered as "".
func (t *Table) Records() [][]string {
	recs := t.df.Records()
	for i := 1; i < len(recs); i++ {
		for j, v := range recs[i] {
			if IsNull(v) {
				recs[i][j] = ""
			}
		}
	}
	return recs
}

// Row returns the values of row i keyed by column name.
func (t *Table) Row(i int) map[string]string {
	out := make(map[string]string, t.df.Ncol())
	for _, n := range t.df.Names() {
		v := t.df.Col(n).Elem(i).String()
		if IsNull(v) {
			v = ""
		}
		out[n] = v
	}
	return out
}

// Select keeps only cols, in the given order. Every column must exist.
func (t *Table) Select(cols ...string) (*Table, error) {
	if _, missing := t.Present(cols); len(missing) > 0 {
		return nil, fmt.Errorf("select: unknown columns %s", strings.Join(missing, ", "))
	}
	return t.derive(t.df.Select(cols), "select")
}

// DropColumns removes the named columns. Names that are not present are ignored.
func (t *Table) DropColumns(cols ...string) (*Table, error) {
	found, _ := t.Present(cols)
	if len(found) == 0 {
		return t, nil
	}
	return t.derive(t.df.Drop(found), "drop columns")
}

// DropRows removes rows at the given 0-based positions and renumbers the rest.
// Out-of-range positions are ignored. Dropping every row leaves the header.
func (t *Table) DropRows(positions ...int) (*Table, error) {
	skip := make(map[int]bool, len(positions))
	for _, p := range positions {
		skip[p] = true
	}
	keep := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if !skip[i] {
			keep = append(keep, i)
		}
	}
	if len(keep) == t.Len() {
		return t, nil
	}
	return t.derive(t.df.Subset(keep), "drop rows")
}

// Set replaces (or appends) column name with vals stored as typ.
// Null cells in vals may be "" or "NaN".
func (t *Table) Set(name string, vals []string, typ series.Type) (*Table, error) {
	if len(vals) != t.Len() {
		return nil, fmt.Errorf("set %s: %d values for %d rows", name, len(vals), t.Len())
	}
	cells := make([]string, len(vals))
	for i, v := range vals {
		if IsNull(v) {
			v = "NaN"
		}
		cells[i] = v
	}
	s := series.New(cells, typ, name)
	if s.Err != nil {
		return nil, fmt.Errorf("set %s: %w", name, s.Err)
	}
	return t.derive(t.df.Mutate(s), "set "+name)
}

// InsertAfter adds column name immediately after column after.
// If name already exists it is moved to the new position.
func (t *Table) InsertAfter(after, name string, vals []string, typ series.Type) (*Table, error) {
	if !t.Has(after) {
		return nil, fmt.Errorf("insert %s: unknown column %s", name, after)
	}
	withCol, err := t.Set(name, vals, typ)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, len(withCol.Names()))
	for _, n := range t.Names() {
		if n == name {
			continue
		}
		order = append(order, n)
		if n == after {
			order = append(order, name)
		}
	}
	return withCol.Select(order...)
}

// Where keeps the rows whose col equals value.
func (t *Table) Where(col, value string) (*Table, error) {
	if !t.Has(col) {
		return nil, fmt.Errorf("where: unknown column %s", col)
	}
	var keep []int
	for i, v := range t.Column(col) {
		if v == value {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("where %s == %q: %w", col, value, ErrEmpty)
	}
	return t.derive(t.df.Subset(keep), "where")
}

// Unique returns the distinct values of col in order of first appearance.
func (t *Table) Unique(col string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range t.Column(col) {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// CountNulls returns how many cells of col are null.
func (t *Table) CountNulls(col string) int {
	n := 0
	for _, v := range t.Column(col) {
		if IsNull(v) {
			n++
		}
	}
	return n
}

// LeftJoin keeps every row of t and appends the columns of right whose
// rightKey matches t's leftKey. Unmatched rows get null cells. Right-hand
// columns whose names clash with t are suffixed with "_right".
func (t *Table) LeftJoin(right *Table, leftKey, rightKey string) (*Table, error) {
	if !t.Has(leftKey) {
		return nil, fmt.Errorf("join: unknown left column %s", leftKey)
	}
	if !right.Has(rightKey) {
		return nil, fmt.Errorf("join: unknown right column %s", rightKey)
	}
	rdf := right.df
	var extra []string
	for _, n := range right.Names() {
		name := n
		if n != rightKey && t.Has(n) {
			name = n + "_right"
			rdf = rdf.Rename(name, n)
		}
		if n == rightKey && rightKey == leftKey {
			continue
		}
		extra = append(extra, name)
	}
	if rightKey != leftKey {
		rdf = rdf.Mutate(series.New(rdf.Col(rightKey).Records(), series.String, leftKey))
	}
	if rdf.Err != nil {
		return nil, fmt.Errorf("join: %w", rdf.Err)
	}
	left := t.df.Mutate(series.New(t.df.Col(leftKey).Records(), series.String, leftKey))
	joined, err := t.derive(left.LeftJoin(rdf, leftKey), "join")
	if err != nil {
		return nil, err
	}
	order := append(append([]string{}, t.Names()...), extra...)
	return joined.Select(order...)
}

// IsNull reports whether a cell value counts as missing. The literals match
// pandas' default null values, so a cell holding "NA" is treated as missing.
func IsNull(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "NaN", "NA", "<nil>":
		return true
	}
	return false
}
