package dex

import (
	"context"
	"fmt"
	"math/big"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/circuitbreaker"
	"github.com/mvaldes/flashcycle/internal/logger"
)

// Typical gas for one concentrated-liquidity swap.
const v3SwapGas = 150_000

// Standard fee tiers in hundredths of a bip: 0.05%, 0.3%, 1%.
var v3FeeTiers = []*big.Int{
	big.NewInt(500),
	big.NewInt(3000),
	big.NewInt(10000),
}

// V3QuoterAdapter quotes against a concentrated-liquidity quoter,
// probing every standard fee tier and keeping the best output. Tiers
// without a pool revert and are skipped.
type V3QuoterAdapter struct {
	id      domain.DEXID
	quoter  common.Address
	client  *ethclient.Client
	logger  logger.LoggerInterface
	breaker *circuitbreaker.CircuitBreaker[[]byte]
}

// NewV3QuoterAdapter creates an adapter for a v3-style quoter contract.
func NewV3QuoterAdapter(id domain.DEXID, quoter common.Address, client *ethclient.Client, log logger.LoggerInterface) *V3QuoterAdapter {
	return &V3QuoterAdapter{
		id:      id,
		quoter:  quoter,
		client:  client,
		logger:  log,
		breaker: circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("dex-" + string(id))),
	}
}

// ID returns the venue identifier.
func (a *V3QuoterAdapter) ID() domain.DEXID {
	return a.id
}

// Quote probes quoteExactInputSingle across fee tiers.
func (a *V3QuoterAdapter) Quote(ctx context.Context, in, out common.Address, amountIn *big.Int) (*domain.Quote, error) {
	var (
		best     *big.Int
		bestTier *big.Int
	)

	for _, tier := range v3FeeTiers {
		amountOut, err := a.quoteTier(ctx, in, out, tier, amountIn)
		if err != nil {
			a.logger.Debug(ctx, "fee tier quote failed",
				"venue", a.id, "tier", tier, "error", err)
			continue
		}
		if best == nil || amountOut.Cmp(best) > 0 {
			best = amountOut
			bestTier = tier
		}
	}

	if best == nil {
		return nil, fmt.Errorf("no fee tier quoted %s -> %s", in.Hex(), out.Hex())
	}

	q := domain.NewQuote(a.id, in, out, amountIn, best)
	q.FeeTier = bestTier
	q.GasEstimate = v3SwapGas
	return q, nil
}

func (a *V3QuoterAdapter) quoteTier(ctx context.Context, in, out common.Address, fee, amountIn *big.Int) (*big.Int, error) {
	data, err := v3QuoterABI.Pack("quoteExactInputSingle", in, out, fee, amountIn, big.NewInt(0))
	if err != nil {
		return nil, fmt.Errorf("pack quoteExactInputSingle: %w", err)
	}

	raw, err := a.breaker.Execute(func() ([]byte, error) {
		return a.client.CallContract(ctx, geth.CallMsg{To: &a.quoter, Data: data}, nil)
	})
	if err != nil {
		return nil, err
	}

	results, err := v3QuoterABI.Unpack("quoteExactInputSingle", raw)
	if err != nil || len(results) == 0 {
		return nil, fmt.Errorf("unpack quoteExactInputSingle: %w", err)
	}

	amountOut, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected quoter result %T", results[0])
	}
	if amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("zero output")
	}
	return amountOut, nil
}
