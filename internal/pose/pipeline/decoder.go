package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/pose.report/internal/monitoring"
	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
	"github.com/banshee-data/pose.report/internal/pose/l2parts"
	"github.com/banshee-data/pose.report/internal/pose/l3limbs"
	"github.com/banshee-data/pose.report/internal/pose/l4bodies"
	"github.com/banshee-data/pose.report/internal/timeutil"
)

// Observer receives every successful decode, for example to plot or persist
// it. An observer error fails the decode.
type Observer interface {
	Observe(t *l1tensor.Tensor, r *Result) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(t *l1tensor.Tensor, r *Result) error

// Observe calls f.
func (f ObserverFunc) Observe(t *l1tensor.Tensor, r *Result) error { return f(t, r) }

// Decoder turns network output tensors into bodies. It is safe for
// concurrent use; a Decoder holds no per-frame state.
type Decoder struct {
	cfg       Config
	nms       l2parts.NMSParams
	score     l3limbs.ScoreParams
	clock     timeutil.Clock
	observers []Observer
}

// Option customises a Decoder.
type Option func(*Decoder)

// WithClock sets the clock used for stage timings.
func WithClock(c timeutil.Clock) Option {
	return func(d *Decoder) { d.clock = c }
}

// WithObserver appends an observer.
func WithObserver(o Observer) Option {
	return func(d *Decoder) { d.observers = append(d.observers, o) }
}

// NewDecoder validates cfg and returns a decoder.
func NewDecoder(cfg Config, opts ...Option) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Decoder{
		cfg:   cfg,
		nms:   cfg.nmsParams(),
		score: cfg.scoreParams(),
		clock: timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the decoder's thresholds.
func (d *Decoder) Config() Config {
	return d.cfg
}

// Decode runs the full pipeline over t.
func (d *Decoder) Decode(t *l1tensor.Tensor) (*Result, error) {
	return d.DecodeContext(context.Background(), t)
}

// DecodeContext is Decode with cancellation between stages.
func (d *Decoder) DecodeContext(ctx context.Context, t *l1tensor.Tensor) (*Result, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	res := &Result{Height: t.Height, Width: t.Width}

	start := d.clock.Now()
	if err := d.detect(ctx, t, res); err != nil {
		return nil, err
	}
	res.Stats.Detect = d.clock.Since(start)

	start = d.clock.Now()
	if err := d.connect(ctx, t, res); err != nil {
		return nil, err
	}
	res.Stats.Connect = d.clock.Since(start)

	start = d.clock.Now()
	res.Bodies = l4bodies.Assemble(&res.Limbs, d.cfg.MinBodyPartCount)
	res.Stats.Assemble = d.clock.Since(start)

	res.Stats.Parts = res.Parts.Count()
	for _, n := range res.Candidates {
		res.Stats.Candidates += n
	}
	res.Stats.Limbs = res.Limbs.Count()
	res.Stats.Bodies = len(res.Bodies)

	monitoring.Debugf("[pose] %dx%d: parts=%d candidates=%d limbs=%d bodies=%d detect=%v connect=%v assemble=%v",
		t.Height, t.Width, res.Stats.Parts, res.Stats.Candidates, res.Stats.Limbs, res.Stats.Bodies,
		res.Stats.Detect, res.Stats.Connect, res.Stats.Assemble)

	for _, o := range d.observers {
		if err := o.Observe(t, res); err != nil {
			return nil, fmt.Errorf("decode observer: %w", err)
		}
	}
	return res, nil
}

func (d *Decoder) group(ctx context.Context) *errgroup.Group {
	g, _ := errgroup.WithContext(ctx)
	if d.cfg.Workers > 0 {
		g.SetLimit(d.cfg.Workers)
	}
	return g
}

// detect fills res.Parts. Each goroutine owns one slot.
func (d *Decoder) detect(ctx context.Context, t *l1tensor.Tensor, res *Result) error {
	g := d.group(ctx)
	for _, pt := range l2parts.PartTypes() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res.Parts[pt] = l2parts.DetectParts(t, pt, d.nms)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("detect parts: %w", err)
	}
	return nil
}

// connect fills res.Limbs and res.Candidates. Each goroutine owns one slot.
func (d *Decoder) connect(ctx context.Context, t *l1tensor.Tensor, res *Result) error {
	g := d.group(ctx)
	for _, lt := range l3limbs.LimbTypes() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res.Limbs[lt], res.Candidates[lt] = l3limbs.Connect(t, lt, &res.Parts, d.score)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("connect limbs: %w", err)
	}
	return nil
}
