package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Quote is a single-hop swap quote from one venue.
type Quote struct {
	DEX       DEXID
	In        common.Address
	Out       common.Address
	AmountIn  *big.Int
	AmountOut *big.Int
	// FeeTier is the pool fee in hundredths of a bip, only set by
	// venues that price per fee tier.
	FeeTier *big.Int
	// GasEstimate is the venue's static per-swap gas cost, used for
	// execution gas budgeting, not charged against quote comparison.
	GasEstimate uint64
	Timestamp   time.Time
}

// NewQuote creates a quote with defensive copies of the amounts.
func NewQuote(dex DEXID, in, out common.Address, amountIn, amountOut *big.Int) *Quote {
	return &Quote{
		DEX:       dex,
		In:        in,
		Out:       out,
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: new(big.Int).Set(amountOut),
		Timestamp: time.Now(),
	}
}

// Pair returns the direction-independent pair key for this quote.
func (q *Quote) Pair() PairKey {
	return NewPairKey(q.In, q.Out)
}

// Rate returns amountOut/amountIn as a float, 0 when undefined.
// Useful for logging only, never for amount math.
func (q *Quote) Rate() float64 {
	if q.AmountIn == nil || q.AmountIn.Sign() == 0 || q.AmountOut == nil {
		return 0
	}
	rate, _ := new(big.Float).Quo(
		new(big.Float).SetInt(q.AmountOut),
		new(big.Float).SetInt(q.AmountIn),
	).Float64()
	return rate
}
