package render

import (
	"context"
	"errors"
)

// ErrStopped is returned once the dispatcher loop has exited.
var ErrStopped = errors.New("dispatcher stopped")

type result struct {
	out Outcome
	err error
}

type op struct {
	ctx   context.Context
	fn    func(ctx context.Context) (Outcome, error)
	reply chan result
}

// Dispatcher serializes every session mutation through one goroutine.
// Render workers submit their page results through it as well, so the
// store and per-page display state always have a single writer.
type Dispatcher struct {
	coord *Coordinator
	ops   chan op
	done  chan struct{}
}

// NewDispatcher attaches a dispatcher to the coordinator.
func NewDispatcher(c *Coordinator) *Dispatcher {
	d := &Dispatcher{
		coord: c,
		ops:   make(chan op),
		done:  make(chan struct{}),
	}
	c.exec = func(ctx context.Context, fn func() error) error {
		_, err := d.do(ctx, func(context.Context) (Outcome, error) { return Outcome{}, fn() })
		return err
	}
	return d
}

// Run is the single writer loop. It returns when ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.coord.baseCtx = ctx
	defer close(d.done)
	defer d.coord.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case o := <-d.ops:
			out, err := o.fn(o.ctx)
			o.reply <- result{out: out, err: err}
		}
	}
}

// Dispatch applies an event and waits for its outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (Outcome, error) {
	return d.do(ctx, func(ctx context.Context) (Outcome, error) {
		return ev.apply(ctx, d.coord)
	})
}

// WaitRendered blocks until the current document has finished rendering.
func (d *Dispatcher) WaitRendered(ctx context.Context) error {
	var done chan struct{}
	_, err := d.do(ctx, func(context.Context) (Outcome, error) {
		done = d.coord.renderDone
		return Outcome{}, nil
	})
	if err != nil {
		return err
	}
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ping round-trips a no-op through the writer loop.
func (d *Dispatcher) Ping(ctx context.Context) error {
	_, err := d.do(ctx, func(context.Context) (Outcome, error) { return Outcome{}, nil })
	return err
}

// Preview composites the page raster with its highlights and encodes a PNG
// scaled to width pixels. Encoding happens off the writer goroutine.
func (d *Dispatcher) Preview(ctx context.Context, pageNum, width int) ([]byte, error) {
	out, err := d.Dispatch(ctx, previewRequested{page: pageNum})
	if err != nil {
		return nil, err
	}
	return encodePreview(out.preview, width)
}

func (d *Dispatcher) do(ctx context.Context, fn func(context.Context) (Outcome, error)) (Outcome, error) {
	reply := make(chan result, 1)
	select {
	case d.ops <- op{ctx: ctx, fn: fn, reply: reply}:
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case <-d.done:
		return Outcome{}, ErrStopped
	}

	select {
	case r := <-reply:
		return r.out, r.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
