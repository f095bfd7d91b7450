package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's prometheus collectors, registered against an
// injected registry so tests can use an isolated one.
type Metrics struct {
	notesProcessed prometheus.Counter
	notesFailed    *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		notesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notes_processed_total",
			Help: "Total number of audio notes processed to completion.",
		}),
		notesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_failed_total",
			Help: "Total number of audio notes that failed, by stage.",
		}, []string{"stage"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "note_stage_duration_seconds",
			Help:    "Wall-clock duration of each pipeline stage.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
	}

	for _, c := range []prometheus.Collector{m.notesProcessed, m.notesFailed, m.stageDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeStage(stage Stage, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

func (m *Metrics) noteDone() {
	if m == nil {
		return
	}
	m.notesProcessed.Inc()
}

func (m *Metrics) noteFailed(stage Stage) {
	if m == nil {
		return
	}
	m.notesFailed.WithLabelValues(string(stage)).Inc()
}
