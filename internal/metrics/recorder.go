// Package metrics exposes observability hooks for the generation pipeline.
package metrics

import (
	"time"

	"DIP-EASY/internal/models"
)

// Stage names used as metric labels.
const (
	StageRender   = "render"
	StageLinks    = "links"
	StageConvert  = "convert"
	StageMerge    = "merge"
	StageValidate = "validate"
	StageCreate   = "create"
)

// Recorder receives pipeline observations. Implementations may forward to
// Prometheus; NoopRecorder is used when metrics are not wired.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageOutcome(stage string, outcome models.Outcome)
	IncTransition(event, to string)
}

type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageOutcome(string, models.Outcome) {}
func (NoopRecorder) IncTransition(string, string) {}
