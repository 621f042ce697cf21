package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/catalog"
)

// Report is the end-of-job summary written to report.json.
type Report struct {
	JobID           string               `json:"job_id"`
	Status          string               `json:"status"`
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      time.Time            `json:"finished_at"`
	Duration        string               `json:"duration"`
	Totals          Counters             `json:"totals"`
	SuccessRate     float64              `json:"success_rate"`
	Stages          []StageReport        `json:"stages"`
	Diagnostics     []catalog.Diagnostic `json:"diagnostics,omitempty"`
	Failures        []Failure            `json:"failures,omitempty"`
	Recommendations []string             `json:"recommendations,omitempty"`
}

type StageReport struct {
	Name     string   `json:"name"`
	Counters Counters `json:"counters"`
}

type Failure struct {
	Stage   string `json:"stage"`
	ItemKey string `json:"item_key"`
	Class   string `json:"error_class"`
	Message string `json:"message"`
}

// BuildReport assembles the summary from the reporter's counters, the
// ingestion diagnostics and the recorded failures.
func BuildReport(r *Reporter, status string, diags []catalog.Diagnostic, failures []Failure) *Report {
	stages, order := r.Snapshot()

	report := &Report{
		JobID:       r.jobID,
		Status:      status,
		StartedAt:   r.start,
		FinishedAt:  time.Now(),
		Diagnostics: diags,
		Failures:    failures,
	}
	report.Duration = report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond).String()

	for _, name := range order {
		c := stages[name]
		report.Stages = append(report.Stages, StageReport{Name: name, Counters: c})
		report.Totals.Created += c.Created
		report.Totals.Updated += c.Updated
		report.Totals.Skipped += c.Skipped
		report.Totals.Failed += c.Failed
	}
	report.SuccessRate = report.Totals.SuccessRate()
	report.Recommendations = BuildRecommendations(diags, failures)
	return report
}

// BuildRecommendations groups validation problems by field so the
// operator can fix a whole class of rows at once.
func BuildRecommendations(diags []catalog.Diagnostic, failures []Failure) []string {
	byField := make(map[string]int)
	for _, d := range diags {
		if d.Severity == catalog.SeverityError {
			byField[d.Field]++
		}
	}

	var recs []string
	fields := make([]string, 0, len(byField))
	for field := range byField {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		recs = append(recs,
			fmt.Sprintf("%d row(s) rejected on field %q; fix the source column and re-run", byField[field], field))
	}

	transient := 0
	conflict := 0
	for _, f := range failures {
		switch f.Class {
		case "transient":
			transient++
		case "conflict":
			conflict++
		}
	}
	if transient > 0 {
		recs = append(recs,
			fmt.Sprintf("%d item(s) failed on transient errors; resume the job to retry them", transient))
	}
	if conflict > 0 {
		recs = append(recs,
			fmt.Sprintf("%d item(s) hit conflicts; check for duplicate url keys or concurrent edits", conflict))
	}
	return recs
}

// WriteReport writes the report atomically (temp file then rename) so a
// crash never leaves a truncated report behind.
func WriteReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed marshalling report")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "failed writing %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "failed renaming report into place")
	}
	return nil
}
