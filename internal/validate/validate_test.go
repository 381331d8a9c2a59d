package validate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/paraprep/internal/table"
)

func prepared(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.FromRecords("prepared", [][]string{
		{"type", "year", "country", "host", "start", "end", "duration", "Code"},
		{"winter", "1994", "Norway", "Lillehammer", "01/01/1994", "16/01/1994", "15", "NOR"},
		{"summer", "1996", "United States of America", "Atlanta", "16/08/1996", "25/08/1996", "9", "USA"},
		{"summer", "2000", "Australia", "Sydney", "18/10/2000", "29/10/2000", "11", "AUS"},
	})
	require.NoError(t, err)
	return tb
}

func TestCleanTablePasses(t *testing.T) {
	c := DefaultConstraints()
	c.Unique = []string{"year", "country", "host"}
	r := CheckColumnConstraints(prepared(t), c)
	assert.True(t, r.OK(), "findings: %+v", r.Findings())
	assert.Equal(t, 3, r.Rows)
	assert.Equal(t, map[string]int{
		CheckNameUnique:     0,
		CheckNameNotNull:    0,
		CheckNameDateFormat: 0,
		CheckNameDuration:   0,
	}, r.Counts())
}

func TestCheckUniqueListsEveryDuplicate(t *testing.T) {
	res := CheckUnique(prepared(t), []string{"type", "year", "event_code"})
	require.Len(t, res, 3)

	assert.Equal(t, SeverityWarning, res[0].Severity)
	assert.Equal(t, []int{1, 2}, res[0].Rows)
	assert.Contains(t, res[0].Message, "Duplicates at rows: [1, 2]")

	assert.True(t, res[1].OK())

	assert.Equal(t, SeverityError, res[2].Severity)
	assert.Equal(t, "Column 'event_code' not found in the dataset.", res[2].Message)
}

func TestCheckNulls(t *testing.T) {
	tb, err := table.FromRecords("t", [][]string{
		{"country", "Code"},
		{"Norway", "NOR"},
		{"Atlantis", ""},
		{"Narnia", "NaN"},
	})
	require.NoError(t, err)

	res := CheckNulls(tb, []string{"country", "Code"})
	require.Len(t, res, 2)
	assert.True(t, res[0].OK())
	assert.Equal(t, []int{1, 2}, res[1].Rows)
	assert.Equal(t, "Column 'Code' has 2 null values at rows: [1, 2]", res[1].Message)
}

func TestCheckDateFormat(t *testing.T) {
	tb, err := table.FromRecords("t", [][]string{
		{"start", "end"},
		{"01/01/1994", "1994-01-16"},
		{"7/3/2002", "16/03/2002"},
	})
	require.NoError(t, err)

	res := CheckDateFormat(tb, []string{"start", "end"}, "")
	var got []Result
	for _, r := range res {
		if !r.OK() {
			got = append(got, Result{Column: r.Column, Rows: r.Rows, Value: r.Value})
		}
	}
	want := []Result{
		{Column: "start", Rows: []int{1}, Value: "7/3/2002"},
		{Column: "end", Rows: []int{0}, Value: "1994-01-16"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckDuration(t *testing.T) {
	tb, err := table.FromRecords("t", [][]string{
		{"start", "end", "duration"},
		{"01/01/1994", "16/01/1994", "15"},
		{"01/01/1994", "16/01/1994", "14"},
		{"bad", "16/01/1994", "15"},
	})
	require.NoError(t, err)

	res := CheckDuration(tb, DefaultDateLayout)
	require.Len(t, res, 2)
	assert.Equal(t, "15", res[0].Expected)
	assert.Equal(t, "14", res[0].Found)
	assert.Equal(t, "Duration error at row 1: Expected 15, found 14", res[0].Message)
	assert.Equal(t, []int{2}, res[1].Rows)
	assert.Contains(t, res[1].Message, "Date parsing error at row 2")

	noDuration, err := tb.DropColumns("duration")
	require.NoError(t, err)
	res = CheckDuration(noDuration, "")
	require.Len(t, res, 1)
	assert.Equal(t, SeverityError, res[0].Severity)
}

func TestCheckDurationComparesNumerically(t *testing.T) {
	tb, err := table.FromRecords("t", [][]string{
		{"start", "end", "duration"},
		{"01/01/1994", "16/01/1994", "15.0"},
		{"16/08/1996", "25/08/1996", "9"},
		{"18/10/2000", "29/10/2000", "11.5"},
		{"18/10/2000", "29/10/2000", ""},
	})
	require.NoError(t, err)

	res := CheckDuration(tb, DefaultDateLayout)
	require.Len(t, res, 2)
	assert.Equal(t, []int{2}, res[0].Rows)
	assert.Equal(t, "11.5", res[0].Found)
	assert.Equal(t, []int{3}, res[1].Rows)
	assert.Equal(t, "11", res[1].Expected)
}

func TestReportCountsFindings(t *testing.T) {
	r := CheckColumnConstraints(prepared(t), DefaultConstraints())
	assert.False(t, r.OK())
	counts := r.Counts()
	// event_code is not a column of the prepared file
	assert.Equal(t, 1, counts[CheckNameUnique])
	assert.Equal(t, 0, counts[CheckNameDuration])
	require.Len(t, r.Findings(), 1)
	assert.Equal(t, "event_code", r.Findings()[0].Column)
}
