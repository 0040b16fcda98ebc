package dex

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/circuitbreaker"
	"github.com/mvaldes/flashcycle/internal/logger"
)

// Pools index coins by position; scan stops at the first revert.
const maxStableCoins = 8

// Typical gas for one stableswap exchange.
const stableSwapGas = 180_000

// StableSwapAdapter quotes against a stableswap pool. Coin indices
// are discovered once by scanning coins(i) and cached for the life of
// the adapter.
type StableSwapAdapter struct {
	id      domain.DEXID
	pool    common.Address
	client  *ethclient.Client
	logger  logger.LoggerInterface
	breaker *circuitbreaker.CircuitBreaker[[]byte]

	indexOnce sync.Once
	indexErr  error
	coinIndex map[common.Address]int64
}

// NewStableSwapAdapter creates an adapter for a stableswap pool contract.
func NewStableSwapAdapter(id domain.DEXID, pool common.Address, client *ethclient.Client, log logger.LoggerInterface) *StableSwapAdapter {
	return &StableSwapAdapter{
		id:      id,
		pool:    pool,
		client:  client,
		logger:  log,
		breaker: circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("dex-" + string(id))),
	}
}

// ID returns the venue identifier.
func (a *StableSwapAdapter) ID() domain.DEXID {
	return a.id
}

// Quote maps the tokens to pool indices and calls get_dy.
func (a *StableSwapAdapter) Quote(ctx context.Context, in, out common.Address, amountIn *big.Int) (*domain.Quote, error) {
	if err := a.ensureIndex(ctx); err != nil {
		return nil, err
	}

	i, okIn := a.coinIndex[in]
	j, okOut := a.coinIndex[out]
	if !okIn || !okOut {
		return nil, fmt.Errorf("pool does not hold %s -> %s", in.Hex(), out.Hex())
	}

	data, err := stableSwapABI.Pack("get_dy", big.NewInt(i), big.NewInt(j), amountIn)
	if err != nil {
		return nil, fmt.Errorf("pack get_dy: %w", err)
	}

	raw, err := a.breaker.Execute(func() ([]byte, error) {
		return a.client.CallContract(ctx, geth.CallMsg{To: &a.pool, Data: data}, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("get_dy: %w", err)
	}

	results, err := stableSwapABI.Unpack("get_dy", raw)
	if err != nil || len(results) == 0 {
		return nil, fmt.Errorf("unpack get_dy: %w", err)
	}

	amountOut, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected get_dy result %T", results[0])
	}
	if amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("zero output for %s -> %s", in.Hex(), out.Hex())
	}

	q := domain.NewQuote(a.id, in, out, amountIn, amountOut)
	q.GasEstimate = stableSwapGas
	return q, nil
}

func (a *StableSwapAdapter) ensureIndex(ctx context.Context) error {
	a.indexOnce.Do(func() {
		a.coinIndex = make(map[common.Address]int64)

		for i := int64(0); i < maxStableCoins; i++ {
			coin, err := a.coinAt(ctx, i)
			if err != nil {
				break // first revert marks the end of the coin list
			}
			a.coinIndex[coin] = i
		}

		if len(a.coinIndex) < 2 {
			a.indexErr = fmt.Errorf("pool %s exposes %d coins", a.pool.Hex(), len(a.coinIndex))
			return
		}

		a.logger.Debug(ctx, "stableswap coins indexed",
			"venue", a.id, "coins", len(a.coinIndex))
	})
	return a.indexErr
}

func (a *StableSwapAdapter) coinAt(ctx context.Context, i int64) (common.Address, error) {
	data, err := stableSwapABI.Pack("coins", big.NewInt(i))
	if err != nil {
		return common.Address{}, err
	}

	raw, err := a.client.CallContract(ctx, geth.CallMsg{To: &a.pool, Data: data}, nil)
	if err != nil {
		return common.Address{}, err
	}

	results, err := stableSwapABI.Unpack("coins", raw)
	if err != nil || len(results) == 0 {
		return common.Address{}, fmt.Errorf("unpack coins: %w", err)
	}

	coin, ok := results[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected coins result %T", results[0])
	}
	return coin, nil
}
