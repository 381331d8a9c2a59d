package transform

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/paraprep/internal/table"
)

func rawEvents(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.FromRecords("events", [][]string{
		{"type", "year", "country", "host", "start", "end", "participants", "URL", "highlights"},
		{" Winter ", "1994", "Norway", "Lillehammer", "01/01/1994", "16/01/1994", "471", "http://x", "h"},
		{"summer", "1996", "USA", "Atlanta", "16/08/1996", "25/08/1996", "3,259", "", ""},
		{"Summer", "2000", "Australia", "Sydney", "18/10/2000", "", "", "", ""},
		{"WINTER", "2002", "USA", "Salt Lake City", "7/3/2002", "16/03/2002", "-4", "", ""},
	})
	require.NoError(t, err)
	return tb
}

func TestPrepareData(t *testing.T) {
	tr := New(DefaultOptions(), nil)
	out, err := tr.PrepareData(rawEvents(t), []string{"participants", "countries"})
	require.NoError(t, err)

	want := []string{"type", "year", "country", "host", "start", "end", "duration", "participants"}
	if diff := cmp.Diff(want, out.Names()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"winter", "summer", "summer", "winter"}, out.Column("type"))
	assert.Equal(t, []string{"471", "3259", "0", "0"}, out.Column("participants"))
	assert.Equal(t, "int", out.ColumnType("participants"))
	assert.Equal(t, []string{"15", "9", "", "9"}, out.Column("duration"))
	// single-digit dates are written back in the primary layout
	assert.Equal(t, "07/03/2002", out.Column("start")[3])
}

func TestPrepareDataDurationProperty(t *testing.T) {
	tr := New(DefaultOptions(), nil)
	out, err := tr.PrepareData(rawEvents(t), nil)
	require.NoError(t, err)

	layout := DefaultOptions().DateLayouts[0]
	for i := 0; i < out.Len(); i++ {
		row := out.Row(i)
		s, errS := time.Parse(layout, row["start"])
		e, errE := time.Parse(layout, row["end"])
		if errS != nil || errE != nil {
			assert.Equal(t, "", row["duration"], "row %d", i)
			continue
		}
		got, err := strconv.Atoi(row["duration"])
		require.NoError(t, err)
		assert.Equal(t, int(e.Sub(s).Hours()/24), got, "row %d", i)
	}
}

func TestPrepareDataIntColumnsHaveNoNulls(t *testing.T) {
	tr := New(DefaultOptions(), nil)
	out, err := tr.PrepareData(rawEvents(t), []string{"participants", "year"})
	require.NoError(t, err)
	for _, col := range []string{"participants", "year"} {
		assert.Zero(t, out.CountNulls(col), col)
		for _, v := range out.Column(col) {
			n, err := strconv.Atoi(v)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, 0)
		}
	}
}

func TestDayDiff(t *testing.T) {
	s, ok := ParseDate("01/01/1994", DefaultOptions().DateLayouts)
	require.True(t, ok)
	e, ok := ParseDate("16/01/1994", DefaultOptions().DateLayouts)
	require.True(t, ok)
	assert.Equal(t, 15, DayDiff(s, e))
	assert.Equal(t, -15, DayDiff(e, s))

	_, ok = ParseDate("1994-01-01", DefaultOptions().DateLayouts)
	assert.False(t, ok)
	_, ok = ParseDate("", DefaultOptions().DateLayouts)
	assert.False(t, ok)
}

func TestNormalizeTypeIdempotent(t *testing.T) {
	for _, in := range []string{" Summer", "WINTER ", "summer", "", "  Mixed Case  "} {
		once := NormalizeType(in)
		assert.Equal(t, once, NormalizeType(once), in)
	}
	assert.Equal(t, "summer", NormalizeType(" Summer "))
}

func TestCanonicalCountry(t *testing.T) {
	cases := map[string]string{
		"UK":      "Great Britain",
		"USA":     "United States of America",
		"Korea":   "Republic of Korea",
		"Russia":  "Russian Federation",
		"China":   "People's Republic of China",
		"France":  "France",
		"":        "",
		"usa":     "usa",
		"Germany": "Germany",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalCountry(in), in)
	}
}

func TestCoerceCount(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"12", 12, true},
		{"", 0, true},
		{"NaN", 0, true},
		{"1,234", 1234, true},
		{"12.7", 12, true},
		{"-3", 0, false},
		{"many", 0, false},
	}
	for _, c := range cases {
		got, ok := CoerceCount(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("CoerceCount(%q) = %d,%v want %d,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestHandleMissingValues(t *testing.T) {
	records := [][]string{{"Name", "Gold"}}
	for i := 0; i < 20; i++ {
		records = append(records, []string{"n" + strconv.Itoa(i), strconv.Itoa(i)})
	}
	tb, err := table.FromRecords("medals", records)
	require.NoError(t, err)

	out, err := New(DefaultOptions(), nil).HandleMissingValues(tb, []int{0, 17, 31})
	require.NoError(t, err)
	assert.False(t, out.Has("Name"))
	assert.Equal(t, 18, out.Len())
	gold := out.Column("Gold")
	assert.Equal(t, "1", gold[0])
	assert.NotContains(t, gold, "17")
}

func TestReplaceCountryNames(t *testing.T) {
	tr := New(DefaultOptions(), nil)
	out, err := tr.ReplaceCountryNames(rawEvents(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"Norway", "United States of America", "Australia", "United States of America"},
		out.Column("country"))

	noCountry, err := table.FromRecords("x", [][]string{{"a"}, {"1"}})
	require.NoError(t, err)
	_, err = tr.ReplaceCountryNames(noCountry)
	assert.Error(t, err)
}

func TestMergeCountryCodes(t *testing.T) {
	tr := New(DefaultOptions(), nil)
	events, err := tr.ReplaceCountryNames(rawEvents(t))
	require.NoError(t, err)
	events, err = events.Select("year", "country")
	require.NoError(t, err)
	npc, err := table.FromRecords("npc", [][]string{
		{"Code", "Name"},
		{"USA", "United States of America"},
		{"NOR", "Norway"},
	})
	require.NoError(t, err)

	merged, err := tr.MergeCountryCodes(events, npc)
	require.NoError(t, err)
	assert.Equal(t, events.Len(), merged.Len())
	assert.Equal(t, []string{"year", "country", "Code", "Name"}, merged.Names())
	assert.Equal(t, []string{"NOR", "USA", "", "USA"}, merged.Column("Code"))
}
