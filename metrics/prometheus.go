package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver exports index events as Prometheus metrics under the
// lexgo namespace.
type PrometheusObserver struct {
	insertsTotal        prometheus.Counter
	removesTotal        prometheus.Counter
	rejectedWritesTotal *prometheus.CounterVec
	commitDuration      prometheus.Histogram
	dumpDuration        *prometheus.HistogramVec
	dumpedWordsTotal    prometheus.Counter
	documents           prometheus.Gauge
	words               prometheus.Gauge
	memoryBytes         prometheus.Gauge
}

var _ Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver creates and registers the index collectors on reg.
// A nil reg falls back to the default registerer.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		insertsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lexgo",
				Name:      "inserts_total",
				Help:      "Total accepted document inserts.",
			},
		),
		removesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lexgo",
				Name:      "removes_total",
				Help:      "Total accepted document removes.",
			},
		),
		rejectedWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lexgo",
				Name:      "rejected_writes_total",
				Help:      "Writes dropped because the index was frozen, by operation.",
			},
			[]string{"op"},
		),
		commitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "lexgo",
				Name:      "commit_duration_seconds",
				Help:      "Commit latency from call to push completion.",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
		),
		dumpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "lexgo",
				Name:      "dump_duration_seconds",
				Help:      "Index dump latency by status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		dumpedWordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lexgo",
				Name:      "dumped_words_total",
				Help:      "Total dictionary words written by dumps.",
			},
		),
		documents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lexgo",
				Name:      "documents",
				Help:      "Live documents in the index.",
			},
		),
		words: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lexgo",
				Name:      "words",
				Help:      "Unique words across all field dictionaries.",
			},
		),
		memoryBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lexgo",
				Name:      "memory_bytes",
				Help:      "Allocated index memory in bytes.",
			},
		),
	}

	reg.MustRegister(
		o.insertsTotal,
		o.removesTotal,
		o.rejectedWritesTotal,
		o.commitDuration,
		o.dumpDuration,
		o.dumpedWordsTotal,
		o.documents,
		o.words,
		o.memoryBytes,
	)

	return o
}

func (o *PrometheusObserver) OnInsert() {
	o.insertsTotal.Inc()
}

func (o *PrometheusObserver) OnRemove() {
	o.removesTotal.Inc()
}

func (o *PrometheusObserver) OnRejectedWrite(op string) {
	o.rejectedWritesTotal.WithLabelValues(op).Inc()
}

func (o *PrometheusObserver) OnCommit(duration time.Duration) {
	o.commitDuration.Observe(duration.Seconds())
}

func (o *PrometheusObserver) OnDump(duration time.Duration, words uint64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.dumpDuration.WithLabelValues(status).Observe(duration.Seconds())
	if err == nil {
		o.dumpedWordsTotal.Add(float64(words))
	}
}

func (o *PrometheusObserver) OnIndexStats(docs, words, memoryBytes uint64) {
	o.documents.Set(float64(docs))
	o.words.Set(float64(words))
	o.memoryBytes.Set(float64(memoryBytes))
}
