package pricer

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"solpaper/internal/domain"
	"solpaper/internal/metrics"
)

// ErrNotFound is returned when every provider in the chain came back empty.
// It is terminal for the request: callers surface it, nothing retries it.
var ErrNotFound = errors.New("token not found on any supported platform")

// Resolver walks price providers in fixed priority order, most reliable
// first, short-circuiting on the first success. Sequential fallback keeps
// load off the rate-limited lower-priority feeds and makes source
// attribution deterministic.
type Resolver struct {
	providers []TokenProvider
	current   []PriceProvider
	cache     *Cache
	logger    *zap.Logger
}

// NewResolver wires the full-quote chain, the slimmer refresh chain and the
// shared quote cache.
func NewResolver(logger *zap.Logger, cache *Cache, providers []TokenProvider, current []PriceProvider) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		providers: providers,
		current:   current,
		cache:     cache,
		logger:    logger,
	}
}

// Resolve returns the canonical quote for a contract address: cache first,
// then the provider chain. A success is cached before returning. It fails
// with ErrNotFound only when every provider returned no data or errored.
func (r *Resolver) Resolve(ctx context.Context, address string) (*domain.TokenQuote, error) {
	addr := domain.NormalizeAddress(address)

	if quote, ok := r.cache.Get(addr); ok {
		metrics.Resolutions.WithLabelValues(metrics.ResultCache).Inc()
		return quote, nil
	}

	r.logger.Debug("resolving token", zap.String("address", shortAddress(addr)))

	for _, provider := range r.providers {
		quote, err := provider.FetchQuote(ctx, addr)
		if err != nil {
			r.observeFailure(provider.Name(), addr, err)
			continue
		}

		metrics.ProviderLookups.WithLabelValues(provider.Name(), metrics.OutcomeHit).Inc()
		metrics.Resolutions.WithLabelValues(metrics.ResultProvider).Inc()
		r.cache.Put(addr, *quote)

		r.logger.Info("token resolved",
			zap.String("address", shortAddress(addr)),
			zap.String("source", provider.Name()),
			zap.String("price", quote.Price.String()))
		return quote, nil
	}

	metrics.Resolutions.WithLabelValues(metrics.ResultNotFound).Inc()
	return nil, errors.Wrap(ErrNotFound, "the token may be too new or have no liquidity")
}

// ResolveCurrent fetches a fresh price sample for an already-known token via
// the smaller high-priority subset. It never touches the quote cache: refresh
// exists to beat the cache's staleness window. Callers must treat ErrNotFound
// as "keep last known values", not as fatal.
func (r *Resolver) ResolveCurrent(ctx context.Context, address string) (*domain.PriceSample, error) {
	addr := domain.NormalizeAddress(address)

	for _, provider := range r.current {
		sample, err := provider.FetchPrice(ctx, addr)
		if err != nil {
			r.observeFailure(provider.Name(), addr, err)
			continue
		}
		metrics.ProviderLookups.WithLabelValues(provider.Name(), metrics.OutcomeHit).Inc()
		return sample, nil
	}

	return nil, errors.Wrapf(ErrNotFound, "could not fetch current price for %s", shortAddress(addr))
}

func (r *Resolver) observeFailure(provider, addr string, err error) {
	if errors.Is(err, ErrNoData) {
		metrics.ProviderLookups.WithLabelValues(provider, metrics.OutcomeMiss).Inc()
		r.logger.Debug("provider has no data",
			zap.String("provider", provider),
			zap.String("address", shortAddress(addr)))
		return
	}
	metrics.ProviderLookups.WithLabelValues(provider, metrics.OutcomeError).Inc()
	r.logger.Warn("provider failed",
		zap.String("provider", provider),
		zap.String("address", shortAddress(addr)),
		zap.Error(err))
}

func shortAddress(address string) string {
	if len(address) <= 8 {
		return address
	}
	return address[:8] + "..."
}
