package grib2mrms

import (
	"fmt"

	"go.uber.org/zap"
)

// Defaults tuned for the NOAA MRMS reflectivity mosaics.
const (
	DefaultStride           = 4
	DefaultThreshold        = -30.0
	DefaultValueMin         = -50.0
	DefaultValueMax         = 100.0
	DefaultMinValidFraction = 0.01
)

// Options controls decoding and sampling. The zero value is not usable;
// start from DefaultOptions or pass Option values to Decode.
type Options struct {
	// Stride is the row/column down-sampling step used by Sample.
	Stride int
	// Threshold drops samples whose value is at or below it.
	Threshold float64
	// ValueMin and ValueMax bound physically plausible decoded values.
	// Anything outside is treated as missing.
	ValueMin, ValueMax float64
	// MinValidFraction is the Validity Gate cut-off: a grid whose valid
	// fraction is at or below it is rejected.
	MinValidFraction float64
	// Workers > 1 decodes disjoint row ranges concurrently.
	Workers int
	Logger  *zap.Logger
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Stride:           DefaultStride,
		Threshold:        DefaultThreshold,
		ValueMin:         DefaultValueMin,
		ValueMax:         DefaultValueMax,
		MinValidFraction: DefaultMinValidFraction,
		Workers:          1,
		Logger:           zap.NewNop(),
	}
}

// Option configures Options.
type Option func(*Options) error

// WithStride sets the sampling stride; it must be at least 1.
func WithStride(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return fmt.Errorf("stride must be >= 1, got %d", n)
		}
		o.Stride = n
		return nil
	}
}

// WithThreshold sets the minimum sample value (exclusive).
func WithThreshold(v float64) Option {
	return func(o *Options) error {
		o.Threshold = v
		return nil
	}
}

// WithValueBounds sets the plausibility bound applied while unpacking.
func WithValueBounds(min, max float64) Option {
	return func(o *Options) error {
		if !(min < max) {
			return fmt.Errorf("value bounds: min %g must be below max %g", min, max)
		}
		o.ValueMin, o.ValueMax = min, max
		return nil
	}
}

// WithMinValidFraction sets the Validity Gate cut-off in [0, 1).
func WithMinValidFraction(f float64) Option {
	return func(o *Options) error {
		if f < 0 || f >= 1 {
			return fmt.Errorf("min valid fraction must be in [0, 1), got %g", f)
		}
		o.MinValidFraction = f
		return nil
	}
}

// WithWorkers sets the number of row-decoding goroutines.
func WithWorkers(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return fmt.Errorf("workers must be >= 1, got %d", n)
		}
		o.Workers = n
		return nil
	}
}

// WithLogger routes diagnostics to l. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) error {
		if l == nil {
			l = zap.NewNop()
		}
		o.Logger = l
		return nil
	}
}

func buildOptions(opts []Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return Options{}, err
		}
	}
	return o, nil
}
