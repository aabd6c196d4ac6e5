package lexgo

import (
	"log/slog"

	"github.com/hupe1980/lexgo/memoryindex"
	"github.com/hupe1980/lexgo/metrics"
	"github.com/hupe1980/lexgo/resource"
)

type options struct {
	invertWorkers int
	pushWorkers   int
	queueCapacity int
	index         []memoryindex.Option
}

// Option configures an Index.
type Option func(*options)

func defaultOptions() options {
	return options{
		invertWorkers: 4,
		pushWorkers:   4,
		queueCapacity: 128,
	}
}

// WithInvertWorkers sets the number of invert-stage workers. Work is
// sharded by field name, so more workers than indexed fields buys nothing.
func WithInvertWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.invertWorkers = n
		}
	}
}

// WithPushWorkers sets the number of push-stage workers.
func WithPushWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pushWorkers = n
		}
	}
}

// WithQueueCapacity sets the per-worker queue capacity of both executors.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueCapacity = n
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.index = append(o.index, memoryindex.WithLogger(logger))
	}
}

// WithMetrics sets the metrics observer. Defaults to a no-op observer.
func WithMetrics(observer metrics.Observer) Option {
	return func(o *options) {
		o.index = append(o.index, memoryindex.WithMetrics(observer))
	}
}

// WithResourceController attaches a resource controller for memory
// accounting and dump admission.
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) {
		o.index = append(o.index, memoryindex.WithResourceController(c))
	}
}
