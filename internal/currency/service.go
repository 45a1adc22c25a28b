package currency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoRate is returned when no source can supply a conversion rate.
var ErrNoRate = errors.New("no conversion rate available")

// RateSource supplies the value of one unit of from expressed in to.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// CachedRate is a rate plus the time it was obtained.
type CachedRate struct {
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// RateCache stores rates between lookups.
type RateCache interface {
	Get(from, to string) (CachedRate, bool, error)
	Put(from, to string, rate CachedRate) error
}

// StaticRates is a fixed table keyed by "FROM:TO". Inverse pairs are derived.
type StaticRates map[string]decimal.Decimal

func (s StaticRates) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if r, ok := s[pairKey(from, to)]; ok {
		return r, nil
	}
	if r, ok := s[pairKey(to, from)]; ok && !r.IsZero() {
		return decimal.NewFromInt(1).DivRound(r, 8), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s to %s", ErrNoRate, from, to)
}

// ParseStaticRates reads "USD:EUR" -> "0.92" style entries.
func ParseStaticRates(in map[string]string) (StaticRates, error) {
	out := make(StaticRates, len(in))
	for k, v := range in {
		parts := strings.Split(k, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("rate key %q: expected FROM:TO", k)
		}
		r, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("rate %q: %w", k, err)
		}
		out[pairKey(parts[0], parts[1])] = r
	}
	return out, nil
}

// MemoryCache is a process-local RateCache.
type MemoryCache struct {
	mu    sync.Mutex
	rates map[string]CachedRate
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{rates: make(map[string]CachedRate)}
}

func (m *MemoryCache) Get(from, to string) (CachedRate, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rates[pairKey(from, to)]
	return r, ok, nil
}

func (m *MemoryCache) Put(from, to string, rate CachedRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[pairKey(from, to)] = rate
	return nil
}

// ServiceOptions configures a Service. Zero values pick defaults.
type ServiceOptions struct {
	System Currency
	Source RateSource
	Cache  RateCache
	TTL    time.Duration
	Logger *slog.Logger
	Now    func() time.Time
}

// Service owns the system currency and cached conversion.
type Service struct {
	system Currency
	source RateSource
	cache  RateCache
	ttl    time.Duration
	log    *slog.Logger
	now    func() time.Time
}

func NewService(opts ServiceOptions) *Service {
	s := &Service{
		system: opts.System,
		source: opts.Source,
		cache:  opts.Cache,
		ttl:    opts.TTL,
		log:    opts.Logger,
		now:    opts.Now,
	}
	if s.system.Code == "" {
		s.system = ForLocale(LocaleFromEnv())
	}
	if s.cache == nil {
		s.cache = NewMemoryCache()
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) SystemCurrency() Currency { return s.system }

// Rate returns the conversion rate from one code to another, consulting the
// cache before the source.
func (s *Service) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	cached, ok, err := s.cache.Get(from, to)
	if err != nil {
		s.log.Warn("rate cache read failed", "from", from, "to", to, "err", err)
	}
	if ok && s.now().Sub(cached.FetchedAt) < s.ttl {
		return cached.Rate, nil
	}
	if s.source == nil {
		if ok {
			return cached.Rate, nil
		}
		return decimal.Zero, fmt.Errorf("%w: %s to %s", ErrNoRate, from, to)
	}
	rate, err := s.source.Rate(ctx, from, to)
	if err != nil {
		if ok {
			s.log.Warn("using stale rate", "from", from, "to", to, "err", err)
			return cached.Rate, nil
		}
		return decimal.Zero, err
	}
	if err := s.cache.Put(from, to, CachedRate{Rate: rate, FetchedAt: s.now()}); err != nil {
		s.log.Warn("rate cache write failed", "from", from, "to", to, "err", err)
	}
	return rate, nil
}

// Convert multiplies amount by the from→to rate.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	rate, err := s.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

func pairKey(from, to string) string {
	return strings.ToUpper(strings.TrimSpace(from)) + ":" + strings.ToUpper(strings.TrimSpace(to))
}
