package app

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mvaldes/flashcycle/business/discovery/domain"
	liquidity "github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/apperror"
	"github.com/mvaldes/flashcycle/internal/logger"
)

// EvaluatorConfig holds configuration for the profit evaluator.
type EvaluatorConfig struct {
	TestAmounts   []int64 // test notionals in whole base-token units
	MinProfitBps  float64 // profitability floor in basis points
	MaxProfitable int     // stop evaluating once this many are found
	BatchSize     int     // concurrent cycle evaluations
}

// DefaultEvaluatorConfig returns sensible defaults.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		TestAmounts:   []int64{10, 100, 1000, 5000},
		MinProfitBps:  5,
		MaxProfitable: 10,
		BatchSize:     4,
	}
}

// ProfitEvaluator prices candidate cycles through the quote provider.
// Notionals are tried smallest first and the first one that ends
// above break-even settles the cycle, so thin pools are not punished
// by an oversized test amount.
type ProfitEvaluator struct {
	config EvaluatorConfig
	quotes QuoteProvider
	logger logger.LoggerInterface
}

// NewProfitEvaluator creates an evaluator over the given quote provider.
func NewProfitEvaluator(cfg EvaluatorConfig, quotes QuoteProvider, log logger.LoggerInterface) *ProfitEvaluator {
	amounts := make([]int64, len(cfg.TestAmounts))
	copy(amounts, cfg.TestAmounts)
	sort.Slice(amounts, func(i, j int) bool { return amounts[i] < amounts[j] })
	cfg.TestAmounts = amounts

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 4
	}

	return &ProfitEvaluator{
		config: cfg,
		quotes: quotes,
		logger: log,
	}
}

// Evaluate prices every cycle and returns the profitable ones sorted
// by profit percentage, best first. Broken cycles (any hop without a
// quote) are skipped silently. Evaluation short-circuits once
// MaxProfitable results are in hand.
func (e *ProfitEvaluator) Evaluate(ctx context.Context, cycles []*domain.Cycle) ([]*domain.EvaluatedCycle, error) {
	var (
		mu         sync.Mutex
		results    []*domain.EvaluatedCycle
		profitable atomic.Int32
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.BatchSize)

	for _, cycle := range cycles {
		if e.config.MaxProfitable > 0 && int(profitable.Load()) >= e.config.MaxProfitable {
			break
		}

		g.Go(func() error {
			if e.config.MaxProfitable > 0 && int(profitable.Load()) >= e.config.MaxProfitable {
				return nil
			}

			ec, err := e.evaluateCycle(gctx, cycle)
			if err != nil {
				if apperror.IsCode(err, apperror.CodeCycleBroken) {
					e.logger.Debug(gctx, "cycle broken", "cycle", cycle.String())
					return nil
				}
				if errors.Is(err, context.Canceled) {
					return err
				}
				e.logger.Warn(gctx, "cycle evaluation failed",
					"cycle", cycle.String(), "error", err)
				return nil
			}
			if ec == nil {
				return nil
			}

			profitable.Add(1)
			mu.Lock()
			results = append(results, ec)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ProfitPct > results[j].ProfitPct
	})
	return results, nil
}

// evaluateCycle tries ascending notionals and stops at the first one
// whose walk ends above break-even. That single result is then held
// against the profit floor; larger notionals are never consulted to
// rescue a thin win. Returns nil when no notional ends positive or
// the first positive one misses the floor.
func (e *ProfitEvaluator) evaluateCycle(ctx context.Context, cycle *domain.Cycle) (*domain.EvaluatedCycle, error) {
	base := cycle.Base()
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(base.Decimals())), nil)

	var (
		lastErr error
		priced  bool
	)
	for _, units := range e.config.TestAmounts {
		amountIn := new(big.Int).Mul(big.NewInt(units), scale)

		quotes, amountOut, err := e.priceCycle(ctx, cycle, amountIn)
		if err != nil {
			// Broken at this notional, a larger one may still route.
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			lastErr = err
			continue
		}
		priced = true

		profit := new(big.Int).Sub(amountOut, amountIn)
		if profit.Sign() <= 0 {
			continue
		}

		pct := domain.ProfitPercent(amountIn, amountOut)
		if pct*100 < e.config.MinProfitBps {
			return nil, nil
		}
		return &domain.EvaluatedCycle{
			Cycle:     cycle,
			Quotes:    quotes,
			AmountIn:  amountIn,
			AmountOut: amountOut,
			Profit:    profit,
			ProfitPct: pct,
		}, nil
	}
	if !priced && lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// priceCycle chains hop quotes, feeding each hop's output into the
// next hop's input.
func (e *ProfitEvaluator) priceCycle(ctx context.Context, cycle *domain.Cycle, amountIn *big.Int) ([]*liquidity.Quote, *big.Int, error) {
	quotes := make([]*liquidity.Quote, 0, cycle.Len())
	amount := amountIn

	for i := 0; i < cycle.Len(); i++ {
		in, out := cycle.Hop(i)

		q, err := e.quotes.BestQuote(ctx, in.Address(), out.Address(), amount)
		if err != nil {
			return nil, nil, apperror.New(apperror.CodeCycleBroken,
				apperror.WithCause(err),
				apperror.WithContext("hop "+in.Symbol()+" -> "+out.Symbol()))
		}

		quotes = append(quotes, q)
		amount = q.AmountOut
	}
	return quotes, amount, nil
}
