package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/groupcache/lru"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/geal-ai/grib2mrms"
	"github.com/geal-ai/grib2mrms/internal/observability"
)

// Fallback produces a substitute product when a message cannot be trusted.
// The synthetic-data generator behind it lives outside this module.
type Fallback interface {
	Generate(ctx context.Context, cause error) (*grib2mrms.Product, error)
}

// Service decodes messages, caching products by content hash.
type Service struct {
	opts     []grib2mrms.Option
	fallback Fallback
	logger   *zap.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock

	mu    sync.Mutex
	cache *lru.Cache // nil when caching is disabled
}

// Config bundles the Service collaborators. Fallback and Clock are optional.
type Config struct {
	Options   []grib2mrms.Option
	Fallback  Fallback
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Clock     clockwork.Clock
	CacheSize int
}

// New creates a Service.
func New(cfg Config) *Service {
	s := &Service{
		opts:     cfg.Options,
		fallback: cfg.Fallback,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		clock:    cfg.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetricsForTesting()
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if cfg.CacheSize > 0 {
		s.cache = lru.New(cfg.CacheSize)
	}
	return s
}

// Process decodes raw into a product. A hard decode failure is handed to
// the Fallback when one is configured; its product comes back flagged
// Degraded. Without a Fallback the typed decode error is returned.
// Each call gets its own copy of a cached product.
func (s *Service) Process(ctx context.Context, raw []byte) (*grib2mrms.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := xxhash.Sum64(raw)
	if p, ok := s.cached(key); ok {
		s.metrics.Cache.WithLabelValues("hit").Inc()
		s.logger.Debug("product cache hit", zap.Uint64("key", key))
		return p, nil
	}
	if s.cache != nil {
		s.metrics.Cache.WithLabelValues("miss").Inc()
	}

	start := s.clock.Now()
	opts := append([]grib2mrms.Option{grib2mrms.WithLogger(s.logger)}, s.opts...)
	p, err := grib2mrms.DecodeProduct(raw, opts...)
	s.metrics.DecodeDuration.Observe(s.clock.Since(start).Seconds())

	if err != nil {
		return s.degrade(ctx, err)
	}

	s.metrics.Decodes.WithLabelValues(observability.OutcomeOK, "").Inc()
	s.metrics.ValidFraction.Set(p.Valid)
	s.metrics.Samples.Observe(float64(len(p.Samples)))
	for _, d := range p.Defaults {
		s.metrics.Defaulted.WithLabelValues(d.Stage).Inc()
	}
	s.logger.Info("decoded product",
		zap.Int("samples", len(p.Samples)),
		zap.Float64("valid_fraction", p.Valid),
		zap.Uint8("category", p.Meta.ParameterCategory),
		zap.Uint8("parameter", p.Meta.ParameterNumber))
	s.store(key, p)
	return p, nil
}

func (s *Service) degrade(ctx context.Context, cause error) (*grib2mrms.Product, error) {
	kind := Kind(cause)
	if s.fallback == nil {
		s.metrics.Decodes.WithLabelValues(observability.OutcomeError, kind).Inc()
		s.logger.Error("decode failed", zap.String("kind", kind), zap.Error(cause))
		return nil, cause
	}

	p, err := s.fallback.Generate(ctx, cause)
	if err != nil {
		s.metrics.Decodes.WithLabelValues(observability.OutcomeError, kind).Inc()
		return nil, errors.Join(cause, err)
	}
	if p == nil || len(p.Samples) == 0 {
		s.metrics.Decodes.WithLabelValues(observability.OutcomeError, kind).Inc()
		return nil, errors.Join(cause, errors.New("fallback produced no samples"))
	}
	p.Degraded = true
	p.Reason = cause.Error()
	s.metrics.Decodes.WithLabelValues(observability.OutcomeFallback, kind).Inc()
	s.logger.Warn("serving fallback product", zap.String("kind", kind), zap.Error(cause))
	return p, nil
}

func (s *Service) cached(key uint64) (*grib2mrms.Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	return clone(v.(*grib2mrms.Product)), true
}

func (s *Service) store(key uint64, p *grib2mrms.Product) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(key, clone(p))
}

func clone(p *grib2mrms.Product) *grib2mrms.Product {
	c := *p
	c.Samples = append([]grib2mrms.GeoSample(nil), p.Samples...)
	c.Defaults = append([]grib2mrms.Defaulted(nil), p.Defaults...)
	return &c
}

// Kind names the error kind of a decode failure for metrics and logs.
func Kind(err error) string {
	switch {
	case errors.Is(err, grib2mrms.ErrFormat):
		return "format"
	case errors.Is(err, grib2mrms.ErrUnsupportedEdition):
		return "edition"
	case errors.Is(err, grib2mrms.ErrMissingSection):
		return "missing_section"
	case errors.Is(err, grib2mrms.ErrUnsupportedPacking):
		return "packing"
	case errors.Is(err, grib2mrms.ErrCompressedPayload):
		return "compressed_payload"
	case errors.Is(err, grib2mrms.ErrLowValidity):
		return "low_validity"
	default:
		return "other"
	}
}
