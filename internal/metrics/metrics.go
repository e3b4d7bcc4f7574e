// Package metrics exposes Prometheus counters for note and report lifecycle events
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Lifecycle contains Prometheus metrics for moderation workflow operations.
// A nil *Lifecycle records nothing, so callers never need to check.
type Lifecycle struct {
	noteTransitionsTotal   *prometheus.CounterVec
	reportTransitionsTotal *prometheus.CounterVec
	notesSubmittedTotal    prometheus.Counter
	reportsFiledTotal      *prometheus.CounterVec
	noteViewsTotal         prometheus.Counter
	noteDownloadsTotal     prometheus.Counter
	warningsTotal          prometheus.Counter
	transitionConflicts    *prometheus.CounterVec
}

// NewLifecycle creates and registers lifecycle metrics
func NewLifecycle(registry prometheus.Registerer) (*Lifecycle, error) {
	m := &Lifecycle{
		noteTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noteghar_note_transitions_total",
				Help: "Total number of note status transitions",
			},
			[]string{"action", "to"},
		),
		reportTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noteghar_report_transitions_total",
				Help: "Total number of report status transitions",
			},
			[]string{"action", "to"},
		),
		notesSubmittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "noteghar_notes_submitted_total",
			Help: "Total number of notes submitted for review",
		}),
		reportsFiledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noteghar_reports_filed_total",
				Help: "Total number of reports filed against notes",
			},
			[]string{"reason"},
		),
		noteViewsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "noteghar_note_views_total",
			Help: "Total number of note detail views",
		}),
		noteDownloadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "noteghar_note_downloads_total",
			Help: "Total number of note downloads",
		}),
		warningsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "noteghar_user_warnings_total",
			Help: "Total number of warnings issued to users",
		}),
		transitionConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noteghar_transition_conflicts_total",
				Help: "Transitions rejected because the entity had already moved on",
			},
			[]string{"entity", "action"},
		),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *Lifecycle) Describe(ch chan<- *prometheus.Desc) {
	m.noteTransitionsTotal.Describe(ch)
	m.reportTransitionsTotal.Describe(ch)
	m.notesSubmittedTotal.Describe(ch)
	m.reportsFiledTotal.Describe(ch)
	m.noteViewsTotal.Describe(ch)
	m.noteDownloadsTotal.Describe(ch)
	m.warningsTotal.Describe(ch)
	m.transitionConflicts.Describe(ch)
}

// Collect implements the Collector interface
func (m *Lifecycle) Collect(ch chan<- prometheus.Metric) {
	m.noteTransitionsTotal.Collect(ch)
	m.reportTransitionsTotal.Collect(ch)
	m.notesSubmittedTotal.Collect(ch)
	m.reportsFiledTotal.Collect(ch)
	m.noteViewsTotal.Collect(ch)
	m.noteDownloadsTotal.Collect(ch)
	m.warningsTotal.Collect(ch)
	m.transitionConflicts.Collect(ch)
}

func (m *Lifecycle) NoteTransition(action, to string) {
	if m == nil {
		return
	}
	m.noteTransitionsTotal.WithLabelValues(action, to).Inc()
}

func (m *Lifecycle) ReportTransition(action, to string) {
	if m == nil {
		return
	}
	m.reportTransitionsTotal.WithLabelValues(action, to).Inc()
}

func (m *Lifecycle) NoteSubmitted() {
	if m == nil {
		return
	}
	m.notesSubmittedTotal.Inc()
}

func (m *Lifecycle) ReportFiled(reason string) {
	if m == nil {
		return
	}
	m.reportsFiledTotal.WithLabelValues(reason).Inc()
}

func (m *Lifecycle) NoteViewed() {
	if m == nil {
		return
	}
	m.noteViewsTotal.Inc()
}

func (m *Lifecycle) NoteDownloaded() {
	if m == nil {
		return
	}
	m.noteDownloadsTotal.Inc()
}

func (m *Lifecycle) UserWarned() {
	if m == nil {
		return
	}
	m.warningsTotal.Inc()
}

// TransitionConflict counts a lost compare-and-set on a note or report
func (m *Lifecycle) TransitionConflict(entity, action string) {
	if m == nil {
		return
	}
	m.transitionConflicts.WithLabelValues(entity, action).Inc()
}
