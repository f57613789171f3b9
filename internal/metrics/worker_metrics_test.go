package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutboxMetrics(t *testing.T) {
	m := NewOutboxMetrics(prometheus.NewRegistry())

	m.RecordPublish("sent")
	m.RecordPublish("sent")
	m.RecordPublish("failed")
	m.SetBacklog(3, 2*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.publishAttempts.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishAttempts.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.pending))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.oldestAge))

	m.SetBacklog(0, -time.Second)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.oldestAge))
}

func TestCleanupMetrics(t *testing.T) {
	m := NewCleanupMetrics(prometheus.NewRegistry())

	m.RecordDeleted(4)
	m.RecordDeleted(0)
	m.RecordRun("ok", 4)
	m.RecordRun("error", 0)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.deleted))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.lastDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("error")))
}

func TestWorkerMetrics_NilReceiver(t *testing.T) {
	var outbox *OutboxMetrics
	outbox.RecordPublish("sent")
	outbox.SetBacklog(1, time.Second)

	var cleanup *CleanupMetrics
	cleanup.RecordRun("ok", 1)
	cleanup.RecordDeleted(1)
}
