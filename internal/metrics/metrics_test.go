package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/paraprep/internal/validate"
)

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveReport("prepared.csv", &validate.Report{
		Rows: 3,
		Results: []validate.Result{
			{Check: validate.CheckNameUnique, Severity: validate.SeverityOK},
			{Check: validate.CheckNameNotNull, Severity: validate.SeverityWarning},
			{Check: validate.CheckNameNotNull, Severity: validate.SeverityWarning},
		},
	})
	r.ObserveStage("events", 40, true)
	r.ObserveStage("merge", 0, false)

	path := filepath.Join(t.TempDir(), "metrics", "paraprep.prom")
	require.NoError(t, r.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)

	assert.Contains(t, out, `paraprep_validation_findings{check="not_null",file="prepared.csv"} 2`)
	assert.Contains(t, out, `paraprep_validation_findings{check="unique",file="prepared.csv"} 0`)
	assert.Contains(t, out, `paraprep_validation_rows{file="prepared.csv"} 3`)
	assert.Contains(t, out, `paraprep_stage_success{stage="events"} 1`)
	assert.Contains(t, out, `paraprep_stage_success{stage="merge"} 0`)
	assert.Contains(t, out, `paraprep_stage_rows{stage="events"} 40`)
}
