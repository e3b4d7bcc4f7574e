package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewLifecycle(registry)
	require.NoError(t, err)

	m.NoteTransition("approve", "approved")
	m.NoteTransition("approve", "approved")
	m.ReportTransition("dismiss", "dismissed")
	m.ReportFiled("spam")
	m.NoteSubmitted()
	m.NoteViewed()
	m.NoteDownloaded()
	m.UserWarned()
	m.TransitionConflict("note", "approve")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.noteTransitionsTotal.WithLabelValues("approve", "approved")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reportTransitionsTotal.WithLabelValues("dismiss", "dismissed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reportsFiledTotal.WithLabelValues("spam")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.noteDownloadsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transitionConflicts.WithLabelValues("note", "approve")))

	_, err = NewLifecycle(registry)
	assert.Error(t, err, "registering twice fails")
}

func TestNilLifecycleIsNoop(t *testing.T) {
	var m *Lifecycle
	assert.NotPanics(t, func() {
		m.NoteTransition("approve", "approved")
		m.ReportFiled("spam")
		m.NoteDownloaded()
		m.TransitionConflict("report", "resolve")
	})
}
