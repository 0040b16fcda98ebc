package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	discovery "github.com/mvaldes/flashcycle/business/discovery/domain"
	"github.com/mvaldes/flashcycle/business/execution/domain"
	liquidity "github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/asset"
	"github.com/mvaldes/flashcycle/internal/logger"
)

// PairScorer exposes pair liquidity scores for tie-breaking.
type PairScorer interface {
	PairLiquidityScore(a, b common.Address) float64
}

// BuilderConfig holds configuration for the strategy builder.
type BuilderConfig struct {
	SlippageBps  int64           // slippage tolerance in basis points
	MinProfitUSD decimal.Decimal // floor on oracle-converted profit
}

// StrategyBuilder turns the best evaluated cycle into an executable
// strategy, or nothing when the opportunity is too small in USD
// terms.
type StrategyBuilder struct {
	config BuilderConfig
	oracle PriceOracle
	scores PairScorer
	logger logger.LoggerInterface
}

// NewStrategyBuilder creates a builder over the given oracle and scores.
func NewStrategyBuilder(cfg BuilderConfig, oracle PriceOracle, scores PairScorer, log logger.LoggerInterface) *StrategyBuilder {
	return &StrategyBuilder{
		config: cfg,
		oracle: oracle,
		scores: scores,
		logger: log,
	}
}

// Build selects the most profitable cycle and assembles a strategy.
// Ties on profit percentage break toward the cycle with better pair
// liquidity. Returns nil when no cycle clears the USD profit floor.
func (b *StrategyBuilder) Build(ctx context.Context, evaluated []*discovery.EvaluatedCycle) (*domain.Strategy, error) {
	if len(evaluated) == 0 {
		return nil, nil
	}

	best := b.selectBest(evaluated)

	profitUSD, err := b.profitUSD(ctx, best)
	if err != nil {
		return nil, err
	}
	if profitUSD.LessThan(b.config.MinProfitUSD) {
		b.logger.Debug(ctx, "opportunity below usd floor",
			"cycle", best.Cycle.String(),
			"profit_usd", profitUSD.StringFixed(2),
			"floor_usd", b.config.MinProfitUSD.StringFixed(2))
		return nil, nil
	}

	legs := splitLegs(best)
	minOut := domain.MinAmountOutFor(best.AmountIn, best.ProfitPct, b.config.SlippageBps)

	strategy := domain.NewStrategy(
		best.Cycle.Base(), legs,
		best.AmountIn, minOut, best.Profit, best.ProfitPct,
	)

	b.logger.Info(ctx, "strategy built",
		"strategy", strategy.ID,
		"cycle", best.Cycle.String(),
		"profit_pct", best.ProfitPct,
		"profit_usd", profitUSD.StringFixed(2))

	return strategy, nil
}

func (b *StrategyBuilder) selectBest(evaluated []*discovery.EvaluatedCycle) *discovery.EvaluatedCycle {
	pairScore := func(x, y *asset.Asset) float64 {
		return b.scores.PairLiquidityScore(x.Address(), y.Address())
	}

	best := evaluated[0]
	for _, ec := range evaluated[1:] {
		switch {
		case ec.ProfitPct > best.ProfitPct:
			best = ec
		case ec.ProfitPct == best.ProfitPct &&
			ec.MeanPairScore(pairScore) > best.MeanPairScore(pairScore):
			best = ec
		}
	}
	return best
}

// profitUSD converts the simulated profit to USD via the oracle.
func (b *StrategyBuilder) profitUSD(ctx context.Context, ec *discovery.EvaluatedCycle) (decimal.Decimal, error) {
	base := ec.Cycle.Base()

	price, err := b.oracle.TokenPriceUSD(ctx, base)
	if err != nil {
		return decimal.Zero, err
	}

	profit := asset.NewAmount(base, ec.Profit)
	return profit.ToDecimal().Mul(price), nil
}

// splitLegs cuts the winning cycle into two encodable halves. Each
// leg always keeps at least one hop.
func splitLegs(ec *discovery.EvaluatedCycle) [2]domain.Leg {
	hops := ec.Cycle.Len()
	mid := hops / 2
	if mid == 0 {
		mid = 1
	}

	fullPath := make([]common.Address, 0, hops+1)
	for _, t := range ec.Cycle.Tokens {
		fullPath = append(fullPath, t.Address())
	}
	fullPath = append(fullPath, ec.Cycle.Base().Address())

	dexes := make([]liquidity.DEXID, 0, hops)
	for _, q := range ec.Quotes {
		dexes = append(dexes, q.DEX)
	}

	return [2]domain.Leg{
		{Path: fullPath[:mid+1], DEXes: dexes[:mid]},
		{Path: fullPath[mid:], DEXes: dexes[mid:]},
	}
}
