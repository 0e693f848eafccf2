package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(EntriesRejected.WithLabelValues(ReasonDuplicate))
	EntriesRejected.WithLabelValues(ReasonDuplicate).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(EntriesRejected.WithLabelValues(ReasonDuplicate)))

	QueueEntries.Set(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(QueueEntries))
}
