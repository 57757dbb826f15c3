package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Outcome labels for the build report and metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// BuildReport aggregates what the run produced and where it went wrong. It
// is persisted next to the intermediate artifacts as build-report.json.
type BuildReport struct {
	BuildID         string                   `json:"build_id"`
	StartedAt       time.Time                `json:"started_at"`
	Duration        time.Duration            `json:"duration_ns"`
	Outcome         string                   `json:"outcome"`
	StageDurations  map[string]time.Duration `json:"stage_durations_ns"`
	StageErrorKinds map[string]string        `json:"stage_error_kinds,omitempty"`
	StageErrors     []string                 `json:"stage_errors,omitempty"`
	PagesWritten    int                      `json:"pages_written"`
	RawFilesWritten int                      `json:"raw_files_written"`
	ManifestWritten bool                     `json:"manifest_written"`
	PageErrors      []string                 `json:"page_errors,omitempty"`
}

// NewBuildReport creates an empty report for a run.
func NewBuildReport(buildID string) *BuildReport {
	return &BuildReport{
		BuildID:         buildID,
		StartedAt:       time.Now().UTC(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[string]string),
	}
}

func (r *BuildReport) recordStageError(se *StageError) {
	r.StageErrorKinds[se.Stage] = string(se.Kind)
	r.StageErrors = append(r.StageErrors, se.Error())
}

// Persist writes the report as JSON into dir.
func (r *BuildReport) Persist(dir string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode build report: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create report directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, "build-report.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write build report %s: %w", path, err)
	}
	return nil
}
