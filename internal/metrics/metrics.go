// Package metrics records run outcomes in a Prometheus registry and writes
// them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/KaramelBytes/paraprep/internal/utils"
	"github.com/KaramelBytes/paraprep/internal/validate"
)

// Recorder holds the gauges for one command run.
type Recorder struct {
	reg         *prometheus.Registry
	findings    *prometheus.GaugeVec
	checkedRows *prometheus.GaugeVec
	stageRows   *prometheus.GaugeVec
	stageOK     *prometheus.GaugeVec
}

// NewRecorder registers the paraprep gauges on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		findings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "paraprep",
			Name:      "validation_findings",
			Help:      "Data-quality findings per check in the last validation run.",
		}, []string{"file", "check"}),
		checkedRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "paraprep",
			Name:      "validation_rows",
			Help:      "Rows checked in the last validation run.",
		}, []string{"file"}),
		stageRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "paraprep",
			Name:      "stage_rows",
			Help:      "Rows written by each preparation stage.",
		}, []string{"stage"}),
		stageOK: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "paraprep",
			Name:      "stage_success",
			Help:      "1 when the preparation stage wrote its output, 0 otherwise.",
		}, []string{"stage"}),
	}
	r.reg.MustRegister(r.findings, r.checkedRows, r.stageRows, r.stageOK)
	return r
}

// ObserveReport records the findings of a validation report.
func (r *Recorder) ObserveReport(file string, rep *validate.Report) {
	for check, n := range rep.Counts() {
		r.findings.WithLabelValues(file, check).Set(float64(n))
	}
	r.checkedRows.WithLabelValues(file).Set(float64(rep.Rows))
}

// ObserveStage records the outcome of a preparation stage.
func (r *Recorder) ObserveStage(stage string, rows int, ok bool) {
	v := 0.0
	if ok {
		v = 1
	}
	r.stageOK.WithLabelValues(stage).Set(v)
	r.stageRows.WithLabelValues(stage).Set(float64(rows))
}

// WriteTextfile writes the registry to path for a textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
