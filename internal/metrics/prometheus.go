package metrics

import (
	"net/http"
	"time"

	"DIP-EASY/internal/models"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	stageOutcome  *prom.CounterVec
	transitions   *prom.CounterVec
}

// NewPrometheusRecorder registers the pipeline metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "dip",
			Name:      "stage_duration_seconds",
			Help:      "Duration of generation pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dip",
			Name:      "stage_outcomes_total",
			Help:      "Pipeline stage outcomes (ok, degraded, failed, skipped)",
		}, []string{"stage", "outcome"}),
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dip",
			Name:      "generation_transitions_total",
			Help:      "Generation lifecycle transitions by event and target state",
		}, []string{"event", "to"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageOutcome, pr.transitions)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageOutcome(stage string, outcome models.Outcome) {
	p.stageOutcome.WithLabelValues(stage, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncTransition(event, to string) {
	p.transitions.WithLabelValues(event, to).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
