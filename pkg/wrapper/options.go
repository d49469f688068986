package wrapper

import (
	"go.uber.org/zap"

	"github.com/shimforge/shimforge/pkg/emit"
)

const defaultBaseNamespace = "shimforge.generated"

type config struct {
	base        string
	minPlatform int
	log         *zap.Logger
}

// Option configures a Runtime.
type Option func(*config)

// WithBaseNamespace sets the namespace generated class names are placed
// under.
func WithBaseNamespace(base string) Option {
	return func(c *config) { c.base = base }
}

// WithMinPlatformVersion raises the minimum language version wrapping
// requires. Wrapping on an older runtime fails with an
// UnsupportedPlatformError.
func WithMinPlatformVersion(min int) Option {
	return func(c *config) { c.minPlatform = min }
}

// WithLogger sets the logger used for generation and definition events.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) { c.log = log }
}

func buildConfig(opts []Option) config {
	cfg := config{
		base:        defaultBaseNamespace,
		minPlatform: emit.DefaultMinPlatform,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = zap.NewNop()
	}
	return cfg
}
