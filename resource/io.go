package resource

import (
	"context"
	"io"
)

// ThrottledWriter wraps an io.Writer so every write first passes the
// controller's dump IO limiter. With a nil controller or no configured IO
// limit it degrades to the plain writer.
type ThrottledWriter struct {
	ctx context.Context
	w   io.Writer
	c   *Controller
}

// NewThrottledWriter creates a throttled writer. The context bounds waits
// for IO tokens; canceling it fails subsequent writes.
func NewThrottledWriter(ctx context.Context, w io.Writer, c *Controller) *ThrottledWriter {
	return &ThrottledWriter{ctx: ctx, w: w, c: c}
}

func (t *ThrottledWriter) Write(p []byte) (int, error) {
	if err := t.c.AcquireIO(t.ctx, len(p)); err != nil {
		return 0, err
	}
	return t.w.Write(p)
}
