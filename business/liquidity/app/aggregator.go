package app

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/apperror"
	"github.com/mvaldes/flashcycle/internal/cache"
	"github.com/mvaldes/flashcycle/internal/logger"
	"github.com/mvaldes/flashcycle/internal/ratelimit"
)

const meterName = "github.com/mvaldes/flashcycle/business/liquidity/app"

// AggregatorConfig holds configuration for the quote aggregator.
type AggregatorConfig struct {
	CacheTTL      time.Duration // freshness window for cached quotes
	RatePerMinute int           // venue call budget per minute
	Seed          int64         // rng seed for venue ordering jitter
}

// DefaultAggregatorConfig returns sensible defaults.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		CacheTTL:      15 * time.Second,
		RatePerMinute: 300,
		Seed:          time.Now().UnixNano(),
	}
}

type aggregatorMetrics struct {
	quoteRequests metric.Int64Counter
	cacheHits     metric.Int64Counter
	venueFailures metric.Int64Counter
}

// QuoteAggregator fans a quote request out to every configured venue
// and returns the best quote by output amount. Results are cached per
// (in, out, amountIn) so repeated evaluation of overlapping cycles in
// one detection pass hits the chain once per hop.
type QuoteAggregator struct {
	config   AggregatorConfig
	adapters []DEXAdapter
	scores   *domain.ScoreBook
	cache    *cache.Cache[string, *domain.Quote]
	limiter  *ratelimit.Limiter
	logger   logger.LoggerInterface
	metrics  *aggregatorMetrics

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewQuoteAggregator creates an aggregator over the given venue adapters.
func NewQuoteAggregator(cfg AggregatorConfig, adapters []DEXAdapter, scores *domain.ScoreBook, log logger.LoggerInterface) (*QuoteAggregator, error) {
	if len(adapters) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("no venue adapters configured"))
	}

	perSecond := float64(cfg.RatePerMinute) / 60.0
	burst := len(adapters) * 2

	a := &QuoteAggregator{
		config:   cfg,
		adapters: adapters,
		scores:   scores,
		cache:    cache.New[string, *domain.Quote](time.Minute),
		limiter:  ratelimit.NewWithBurst(perSecond, burst),
		logger:   log,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
	}

	if err := a.initMetrics(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *QuoteAggregator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	a.metrics = &aggregatorMetrics{}

	a.metrics.quoteRequests, err = meter.Int64Counter(
		"liquidity_quote_requests_total",
		metric.WithDescription("Total best-quote requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	a.metrics.cacheHits, err = meter.Int64Counter(
		"liquidity_quote_cache_hits_total",
		metric.WithDescription("Quote requests served from cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	a.metrics.venueFailures, err = meter.Int64Counter(
		"liquidity_venue_failures_total",
		metric.WithDescription("Individual venue quote failures"),
		metric.WithUnit("{failure}"),
	)
	return err
}

func quoteCacheKey(in, out common.Address, amountIn *big.Int) string {
	return fmt.Sprintf("%s|%s|%s", in.Hex(), out.Hex(), amountIn.String())
}

// BestQuote returns the venue quote with the highest output amount
// for the given hop. A venue failing is not an error as long as at
// least one venue answers; only when all venues fail does this return
// CodeQuoteUnavailable.
func (a *QuoteAggregator) BestQuote(ctx context.Context, in, out common.Address, amountIn *big.Int) (*domain.Quote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amountIn must be positive"))
	}

	a.metrics.quoteRequests.Add(ctx, 1)

	key := quoteCacheKey(in, out, amountIn)
	if cached, ok := a.cache.Get(ctx, key); ok {
		a.metrics.cacheHits.Add(ctx, 1)
		return cached, nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pair := domain.NewPairKey(in, out)
	ordered := a.orderAdapters(pair)

	var (
		mu   sync.Mutex
		best *domain.Quote
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, adapter := range ordered {
		g.Go(func() error {
			a.scores.RecordAttempt(adapter.ID())

			q, err := adapter.Quote(gctx, in, out, amountIn)
			if err != nil {
				// Every pair-venue failure decays the pair score,
				// even when another venue goes on to answer.
				a.scores.RecordQuoteResult(pair, false)
				a.metrics.venueFailures.Add(gctx, 1,
					metric.WithAttributes(attribute.String("venue", string(adapter.ID()))))
				a.logger.Debug(gctx, "venue quote failed",
					"venue", adapter.ID(), "pair", pair, "error", err)
				return nil // venue failures never abort the fan-out
			}

			mu.Lock()
			if best == nil || q.AmountOut.Cmp(best.AmountOut) > 0 {
				best = q
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if best == nil {
		return nil, apperror.New(apperror.CodeQuoteUnavailable,
			apperror.WithContext(fmt.Sprintf("no venue quoted %s -> %s", in.Hex(), out.Hex())))
	}

	// Only the winning venue gets success credit for the pair.
	a.scores.RecordSelection(best.DEX, pair)
	a.scores.RecordQuoteResult(pair, true)
	a.cache.Set(ctx, key, best, a.config.CacheTTL)
	return best, nil
}

// orderAdapters sorts venues by reliability with seeded jitter. All
// venues are still queried; the ordering only shifts launch order and
// keeps tie-breaking between equally reliable venues from being
// deterministic across runs with different seeds.
func (a *QuoteAggregator) orderAdapters(pair domain.PairKey) []DEXAdapter {
	type ranked struct {
		adapter  DEXAdapter
		priority float64
	}

	a.rngMu.Lock()
	out := make([]ranked, len(a.adapters))
	for i, adapter := range a.adapters {
		jitter := 0.9 + a.rng.Float64()*0.2
		out[i] = ranked{adapter, a.scores.AdapterPriority(adapter.ID(), pair) * jitter}
	}
	a.rngMu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].priority > out[j].priority })

	result := make([]DEXAdapter, len(out))
	for i, r := range out {
		result[i] = r.adapter
	}
	return result
}

// PairLiquidityScore returns the pair's liquidity score.
func (a *QuoteAggregator) PairLiquidityScore(x, y common.Address) float64 {
	return a.scores.PairScore(domain.NewPairKey(x, y))
}

// HasLiquidity reports whether a pair is worth routing through.
// Unknown pairs are treated optimistically so new pairs get explored.
func (a *QuoteAggregator) HasLiquidity(x, y common.Address) bool {
	key := domain.NewPairKey(x, y)
	if !a.scores.Known(key) {
		return true
	}
	return a.scores.PairScore(key) > domain.MinPairScore
}

// Scores exposes the underlying score book for feedback writers.
func (a *QuoteAggregator) Scores() *domain.ScoreBook {
	return a.scores
}

// PrimeTarget is one hop to warm during startup priming.
type PrimeTarget struct {
	In     common.Address
	Out    common.Address
	Amount *big.Int
}

// PrimePairs warms the quote cache and the score book for the given
// hops. Failures are logged and skipped.
func (a *QuoteAggregator) PrimePairs(ctx context.Context, targets []PrimeTarget) {
	for _, t := range targets {
		if _, err := a.BestQuote(ctx, t.In, t.Out, t.Amount); err != nil {
			a.logger.Debug(ctx, "pair priming failed",
				"in", t.In.Hex(), "out", t.Out.Hex(), "error", err)
		}
	}
}

// Close releases aggregator resources.
func (a *QuoteAggregator) Close() {
	a.cache.Close()
}
