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

// Typical gas for one constant-product pool swap.
const v2SwapGas = 120_000

// V2RouterAdapter quotes against a constant-product router using
// getAmountsOut with a direct two-token path.
type V2RouterAdapter struct {
	id      domain.DEXID
	router  common.Address
	client  *ethclient.Client
	logger  logger.LoggerInterface
	breaker *circuitbreaker.CircuitBreaker[[]byte]
}

// NewV2RouterAdapter creates an adapter for a v2-style router contract.
func NewV2RouterAdapter(id domain.DEXID, router common.Address, client *ethclient.Client, log logger.LoggerInterface) *V2RouterAdapter {
	return &V2RouterAdapter{
		id:      id,
		router:  router,
		client:  client,
		logger:  log,
		breaker: circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("dex-" + string(id))),
	}
}

// ID returns the venue identifier.
func (a *V2RouterAdapter) ID() domain.DEXID {
	return a.id
}

// Quote calls getAmountsOut for the direct path [in, out].
func (a *V2RouterAdapter) Quote(ctx context.Context, in, out common.Address, amountIn *big.Int) (*domain.Quote, error) {
	data, err := v2RouterABI.Pack("getAmountsOut", amountIn, []common.Address{in, out})
	if err != nil {
		return nil, fmt.Errorf("pack getAmountsOut: %w", err)
	}

	raw, err := a.breaker.Execute(func() ([]byte, error) {
		return a.client.CallContract(ctx, geth.CallMsg{To: &a.router, Data: data}, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("getAmountsOut: %w", err)
	}

	results, err := v2RouterABI.Unpack("getAmountsOut", raw)
	if err != nil || len(results) == 0 {
		return nil, fmt.Errorf("unpack getAmountsOut: %w", err)
	}

	amounts, ok := results[0].([]*big.Int)
	if !ok || len(amounts) < 2 {
		return nil, fmt.Errorf("unexpected getAmountsOut result %T", results[0])
	}

	amountOut := amounts[len(amounts)-1]
	if amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("zero output for %s -> %s", in.Hex(), out.Hex())
	}

	q := domain.NewQuote(a.id, in, out, amountIn, amountOut)
	q.GasEstimate = v2SwapGas
	return q, nil
}
