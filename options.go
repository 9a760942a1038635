package stm

import (
	"io"
	"log/slog"
)

// Config holds the tunables a Runtime is built with. The zero Config is
// never used directly; callers get one back from defaultConfig and adjust
// it through Option values, the functional-options pattern the rest of
// this package's dependency graph (and the examples it draws on) favors
// over a raw struct literal.
type Config struct {
	// ExponentialBackoff scales the conflict manager's per-lock yield
	// budget by the transaction's own retry count (spec.md §4.6's
	// "exponential back-off" policy knob) instead of holding it fixed at
	// maxYield.
	ExponentialBackoff bool

	// AdaptEveryCommits is the adaptivity checkpoint period (spec.md
	// §4.5): every Nth successful commit on a descriptor, its adaptive
	// hash function and write-buffer hash table size are reconsidered.
	AdaptEveryCommits uint64

	Logger *slog.Logger
}

func defaultConfig() Config {
	return Config{
		ExponentialBackoff: false,
		AdaptEveryCommits:  64,
		Logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures a Runtime at construction time.
type Option func(*Config)

// WithExponentialBackoff turns on retry-scaled yield budgets in the
// conflict manager (off by default, matching the original source's fixed
// MAX_YIELD).
func WithExponentialBackoff(enabled bool) Option {
	return func(c *Config) { c.ExponentialBackoff = enabled }
}

// WithAdaptEveryCommits overrides the adaptivity checkpoint period. A
// value of 0 disables adaptivity entirely: the hash function and
// write-buffer sizing selected at construction never change.
func WithAdaptEveryCommits(n uint64) Option {
	return func(c *Config) { c.AdaptEveryCommits = n }
}

// WithLogger directs the Runtime's lifecycle logging to l instead of
// discarding it. The only event logged is Shutdown's count of retired
// descriptors.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}
