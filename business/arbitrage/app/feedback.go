// Package app contains the detection loop and scoring feedback for
// the arbitrage context.
package app

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	discovery "github.com/mvaldes/flashcycle/business/discovery/domain"
	executionApp "github.com/mvaldes/flashcycle/business/execution/app"
	execution "github.com/mvaldes/flashcycle/business/execution/domain"
	liquidity "github.com/mvaldes/flashcycle/business/liquidity/domain"
	market "github.com/mvaldes/flashcycle/business/market/app"
	"github.com/mvaldes/flashcycle/internal/apperror"
	"github.com/mvaldes/flashcycle/internal/asset"
	"github.com/mvaldes/flashcycle/internal/logger"
)

// Token weight deltas applied alongside pair score updates.
const (
	weightUpOnDetection   = 0.02
	weightDownOnDetection = -0.005
	weightUpOnExecution   = 0.10
	weightDownOnExecution = -0.05
)

// ScoringFeedback folds detection and execution outcomes back into
// pair liquidity scores and token weights, closing the loop into the
// next detection pass. Ambiguous execution outcomes (timeouts) are
// never penalized.
type ScoringFeedback struct {
	scores          *liquidity.ScoreBook
	catalog         *market.TokenCatalog
	oracle          executionApp.PriceOracle
	referenceProfit decimal.Decimal // USD profit that counts as a full success
	logger          logger.LoggerInterface
}

// NewScoringFeedback creates a feedback writer over the score book
// and catalog.
func NewScoringFeedback(scores *liquidity.ScoreBook, catalog *market.TokenCatalog, oracle executionApp.PriceOracle, referenceProfitUSD float64, log logger.LoggerInterface) *ScoringFeedback {
	ref := decimal.NewFromFloat(referenceProfitUSD)
	if ref.Sign() <= 0 {
		ref = decimal.NewFromInt(100)
	}
	return &ScoringFeedback{
		scores:          scores,
		catalog:         catalog,
		oracle:          oracle,
		referenceProfit: ref,
		logger:          log,
	}
}

// OnDetection records a detection outcome for every pair in a cycle.
// Profitable cycles pull their pairs toward 1; unprofitable ones
// decay them gently, far slower than a hard quote failure would.
func (f *ScoringFeedback) OnDetection(cycle *discovery.Cycle, profitable bool) {
	for i := 0; i < cycle.Len(); i++ {
		in, out := cycle.Hop(i)
		key := liquidity.NewPairKey(in.Address(), out.Address())

		if profitable {
			f.scores.Blend(key, 0.9, 0.1)
		} else {
			f.scores.Blend(key, 0.98, 0)
		}
	}

	delta := weightDownOnDetection
	if profitable {
		delta = weightUpOnDetection
	}
	for _, t := range cycle.Tokens {
		f.catalog.AdjustWeight(t.ID(), delta)
	}
}

// OnExecution records a terminal execution outcome for every pair in
// the executed strategy. Timed-out results are ignored since the
// transaction may still mine. Pre-flight validation failures say
// nothing about on-chain liquidity, so they carry no feedback either.
func (f *ScoringFeedback) OnExecution(ctx context.Context, result *execution.Result) {
	if result.Ambiguous() {
		f.logger.Debug(ctx, "skipping feedback for ambiguous execution",
			"strategy", result.Strategy.ID)
		return
	}
	if apperror.IsCode(result.Err, apperror.CodeValidationError) {
		f.logger.Debug(ctx, "skipping feedback for validation failure",
			"strategy", result.Strategy.ID)
		return
	}

	keep, add := f.updateRule(ctx, result)
	delta := weightDownOnExecution
	if result.Succeeded() {
		delta = weightUpOnExecution
	}

	for _, leg := range result.Strategy.Legs {
		for i := 0; i+1 < len(leg.Path); i++ {
			key := liquidity.NewPairKey(leg.Path[i], leg.Path[i+1])
			f.scores.Blend(key, keep, add)
		}
		for _, addr := range leg.Path {
			if t, ok := f.catalog.ByAddress(addr); ok {
				f.catalog.AdjustWeight(t.ID(), delta)
			}
		}
	}
}

// updateRule maps an execution outcome to a score blend.
func (f *ScoringFeedback) updateRule(ctx context.Context, result *execution.Result) (keep, add float64) {
	if !result.Succeeded() {
		return 0.95, 0
	}
	if result.RealizedProfit == nil {
		return 0.9, 0.1
	}

	ratio := f.profitRatio(ctx, result.Strategy.Base, result.RealizedProfit)
	return 0.8, 0.2 * ratio
}

// profitRatio converts realized profit to USD and caps it at the
// reference profit. Oracle failures fall back to a full-credit
// success rather than dropping the signal.
func (f *ScoringFeedback) profitRatio(ctx context.Context, base *asset.Asset, profit *big.Int) float64 {
	price, err := f.oracle.TokenPriceUSD(ctx, base)
	if err != nil {
		f.logger.Debug(ctx, "profit conversion failed, assuming full credit", "error", err)
		return 1
	}

	usd := asset.NewAmount(base, profit).ToDecimal().Mul(price)
	ratio, _ := usd.Div(f.referenceProfit).Float64()
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}
	return ratio
}
