package memoryindex

import (
	"log/slog"

	"github.com/hupe1980/lexgo/metrics"
	"github.com/hupe1980/lexgo/resource"
)

type options struct {
	logger            *slog.Logger
	metrics           metrics.Observer
	resources         *resource.Controller
	featureBufferSize int
}

// Option configures a MemoryIndex.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:  slog.Default(),
		metrics: &metrics.NoopObserver{},
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the metrics observer. Defaults to a no-op observer.
func WithMetrics(observer metrics.Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.metrics = observer
		}
	}
}

// WithResourceController attaches a resource controller. The index then
// reserves its allocated bytes after each commit and respects dump
// admission slots. Overshooting the memory limit is logged, never blocks
// ingestion.
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) {
		o.resources = c
	}
}

// WithFeatureBufferSize sets the capacity of the per-field feature store
// buffers. Defaults to DefaultFeatureBufferSize.
func WithFeatureBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.featureBufferSize = n
		}
	}
}
