package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/paraprep/internal/config"
	"github.com/KaramelBytes/paraprep/internal/metrics"
	"github.com/KaramelBytes/paraprep/internal/table"
)

const rawEvents = `type,year,country,host,start,end,countries,events,sports,participants_m,participants_f,participants,URL,highlights
summer,1960,Italy,Rome,18/09/1960,25/09/1960,23,57,8,,,209,https://example.org/1960,first
 Winter ,1994,Norway,Lillehammer,10/03/1994,19/03/1994,31,133,5,,,471,https://example.org/1994,
summer,1996,USA,Atlanta,16/08/1996,25/08/1996,104,508,20,2415,780,"3,195",https://example.org/1996,
SUMMER,2008,China,Beijing,6/9/2008,17/09/2008,146,472,20,2563,1388,3951,https://example.org/2008,
winter,2010,Canada,Vancouver,12/03/2010,21/03/2010,44,64,5,,,502,https://example.org/2010,
`

const npcCodes = "Code,Name,Region\nNOR,Norway,Europe\nUSA,United States of America,Americas\nCHN,People's Republic of China,Asia\nCAN,Canada,Americas\n"

func testConfig(t *testing.T) *config.Global {
	t.Helper()
	dir := t.TempDir()
	return &config.Global{
		DataDir:         filepath.Join(dir, "data"),
		OutputDir:       filepath.Join(dir, "out"),
		EventsFile:      "paralympics_events_raw.csv",
		ExcelFile:       "paralympics_all_raw.xlsx",
		NPCFile:         "npc_codes.csv",
		DateLayouts:     []string{"02/01/2006", "2/1/2006"},
		EventColumns:    []string{"type", "year", "country", "host", "start", "end", "countries", "events", "sports", "participants_m", "participants_f", "participants"},
		EventIntColumns: []string{"countries", "events", "participants_m", "participants_f", "participants"},
		MedalIntColumns: []string{"Rank", "Gold", "Silver", "Bronze", "Total"},
		DropColumns:     []string{"URL", "disabilities_included", "highlights"},
		DropRows:        []int{0},
	}
}

func writeInputs(t *testing.T, cfg *config.Global) {
	t.Helper()
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0o755))
	require.NoError(t, os.WriteFile(cfg.DataPath(cfg.EventsFile), []byte(rawEvents), 0o644))
	// stray Latin-1 byte, as in the published NPC file
	npc := strings.Replace(npcCodes, "Europe", "Europe\xe9", 1)
	require.NoError(t, os.WriteFile(cfg.DataPath(cfg.NPCFile), []byte(npc), 0o644))

	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Rank", "Team", "Gold", "Silver", "Bronze", "Total"},
		{1, "China", 96, 60, 51, 207},
		{2, "Great Britain", 41, nil, 24, 124},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(cfg.DataPath(cfg.ExcelFile)))
}

func TestRunWritesAllOutputs(t *testing.T) {
	cfg := testConfig(t)
	writeInputs(t, cfg)
	rec := metrics.NewRecorder()
	var out bytes.Buffer

	results := New(cfg, nil, rec, &out).Run()
	require.Len(t, results, 3)
	for _, res := range results {
		require.NoError(t, res.Err, res.Stage)
		for _, p := range res.Outputs {
			_, err := os.Stat(p)
			assert.NoError(t, err, p)
		}
	}
	assert.Equal(t, StageEvents, results[0].Stage)
	assert.Equal(t, []string{cfg.OutputPath(EventsCSV), cfg.OutputPath(EventsXLSX)}, results[0].Outputs)
	assert.Equal(t, 4, results[0].Rows)
	assert.Contains(t, out.String(), "[DATASET SUMMARY]")

	events, err := table.Load(cfg.OutputPath(EventsCSV), table.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"type", "year", "country", "host", "start", "end", "duration",
		"countries", "events", "sports", "participants_m", "participants_f", "participants"}, events.Names())
	assert.Equal(t, []string{"winter", "summer", "summer", "winter"}, events.Column("type"))
	assert.Equal(t, []string{"Norway", "United States of America", "People's Republic of China", "Canada"}, events.Column("country"))
	assert.Equal(t, []string{"9", "9", "11", "9"}, events.Column("duration"))
	assert.Equal(t, []string{"0", "2415", "2563", "0"}, events.Column("participants_m"))
	assert.Equal(t, []string{"471", "3195", "3951", "502"}, events.Column("participants"))
	assert.Equal(t, "06/09/2008", events.Column("start")[2])

	xl, err := table.Load(cfg.OutputPath(EventsXLSX), table.Options{})
	require.NoError(t, err)
	assert.Equal(t, events.Names(), xl.Names())
	assert.Equal(t, 4, xl.Len())

	medals, err := table.Load(cfg.OutputPath(ExcelCSV), table.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"60", "0"}, medals.Column("Silver"))

	merged, err := table.Load(cfg.OutputPath(MergedCSV), table.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"NOR", "USA", "CHN", "CAN"}, merged.Column("Code"))
	assert.False(t, merged.Has("Region"))
}

func TestRunMissingInputsWriteNothing(t *testing.T) {
	cfg := testConfig(t)
	rec := metrics.NewRecorder()

	results := New(cfg, nil, rec, nil).Run()
	require.Len(t, results, 3)
	assert.True(t, errors.Is(results[0].Err, table.ErrNotFound))
	assert.True(t, errors.Is(results[1].Err, table.ErrNotFound))
	assert.True(t, errors.Is(results[2].Err, ErrSkipped))
	for _, res := range results {
		assert.False(t, res.OK())
		assert.Empty(t, res.Outputs)
	}
	_, err := os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(err), "no output should be written")

	path := filepath.Join(t.TempDir(), "paraprep.prom")
	require.NoError(t, rec.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `paraprep_stage_success{stage="events"} 0`)
}

func TestRunStagesAreIndependent(t *testing.T) {
	cfg := testConfig(t)
	writeInputs(t, cfg)
	require.NoError(t, os.Remove(cfg.DataPath(cfg.ExcelFile)))

	results := New(cfg, nil, nil, nil).Run()
	assert.NoError(t, results[0].Err)
	assert.True(t, errors.Is(results[1].Err, table.ErrNotFound))
	assert.NoError(t, results[2].Err)
	_, err := os.Stat(cfg.OutputPath(ExcelCSV))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.OutputPath(MergedCSV))
	assert.NoError(t, err)
}

func TestRunWritesHeaderWhenEveryRowIsDropped(t *testing.T) {
	cfg := testConfig(t)
	writeInputs(t, cfg)
	// three raw rows, all removed by the fixed row positions
	lines := strings.SplitAfter(rawEvents, "\n")
	require.NoError(t, os.WriteFile(cfg.DataPath(cfg.EventsFile), []byte(strings.Join(lines[:4], "")), 0o644))
	cfg.DropRows = []int{0, 1, 2, 17, 31}

	results := New(cfg, nil, nil, nil).Run()
	require.NoError(t, results[0].Err)
	require.NoError(t, results[2].Err)
	assert.Equal(t, 0, results[0].Rows)

	events, err := table.Load(cfg.OutputPath(EventsCSV), table.Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, events.Len())
	assert.Equal(t, []string{"type", "year", "country", "host", "start", "end", "duration",
		"countries", "events", "sports", "participants_m", "participants_f", "participants"}, events.Names())

	xl, err := table.Load(cfg.OutputPath(EventsXLSX), table.Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, xl.Len())

	merged, err := table.Load(cfg.OutputPath(MergedCSV), table.Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, merged.Len())
	assert.True(t, merged.Has("Code"))
}
