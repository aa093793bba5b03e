package annotator

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/annotator/internal/domain"
	"github.com/kailas-cloud/annotator/internal/usecase/render"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	engine           domain.EngineConfig
	maxDocumentBytes int64

	pdf render.Engine

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		engine:           domain.DefaultEngineConfig(),
		maxDocumentBytes: 64 << 20,
	}
}

// WithScale sets the render scale of every page. Default: 1.5.
func WithScale(scale float64) Option {
	return optionFunc(func(c *clientConfig) {
		if scale > 0 {
			c.engine.Scale = scale
		}
	})
}

// WithPageGap sets the vertical gap between pages in pixels. Default: 10.
func WithPageGap(gap float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.engine.PageGap = gap
	})
}

// WithHitTolerance sets the pointer tolerance of highlight deletion in pixels.
// Default: 1.
func WithHitTolerance(tol float64) Option {
	return optionFunc(func(c *clientConfig) {
		if tol > 0 {
			c.engine.HitTolerance = tol
		}
	})
}

// WithDefaultColor sets the highlight color used until SelectColor is called.
func WithDefaultColor(color string) Option {
	return optionFunc(func(c *clientConfig) {
		c.engine.DefaultColor = color
	})
}

// WithMaxDocumentBytes bounds the size of documents passed to Open.
// Default: 64 MiB.
func WithMaxDocumentBytes(n int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxDocumentBytes = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// withPDFEngine replaces the PDF decoder.
func withPDFEngine(e render.Engine) Option {
	return optionFunc(func(c *clientConfig) {
		c.pdf = e
	})
}
