package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewPrometheusObserver(reg)

	o.OnInsert()
	o.OnInsert()
	o.OnRemove()
	o.OnRejectedWrite("insert")
	o.OnCommit(5 * time.Millisecond)
	o.OnDump(time.Second, 120, nil)
	o.OnDump(time.Second, 0, errors.New("disk full"))
	o.OnIndexStats(10, 42, 4096)

	assert.Equal(t, float64(2), testutil.ToFloat64(o.insertsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(o.removesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(o.rejectedWritesTotal.WithLabelValues("insert")))
	assert.Equal(t, float64(120), testutil.ToFloat64(o.dumpedWordsTotal))
	assert.Equal(t, float64(10), testutil.ToFloat64(o.documents))
	assert.Equal(t, float64(42), testutil.ToFloat64(o.words))
	assert.Equal(t, float64(4096), testutil.ToFloat64(o.memoryBytes))

	assert.Equal(t, 1, testutil.CollectAndCount(o.commitDuration))
	assert.Equal(t, 2, testutil.CollectAndCount(o.dumpDuration))
}

func TestPrometheusObserverDoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotNil(t, NewPrometheusObserver(reg))

	assert.Panics(t, func() {
		NewPrometheusObserver(reg)
	})
}
