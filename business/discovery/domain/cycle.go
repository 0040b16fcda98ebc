// Package domain contains the core domain types for the discovery context.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"

	liquidity "github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/asset"
)

// Cycle is a closed trading loop. Tokens[0] is the base token the
// loop borrows and repays; the final hop returns to it implicitly.
// Intermediate tokens never repeat.
type Cycle struct {
	Tokens []*asset.Asset
}

// NewCycle creates a cycle over the given token path.
func NewCycle(tokens []*asset.Asset) *Cycle {
	return &Cycle{Tokens: tokens}
}

// Base returns the borrow/repay token.
func (c *Cycle) Base() *asset.Asset {
	return c.Tokens[0]
}

// Len returns the number of hops in the cycle.
func (c *Cycle) Len() int {
	return len(c.Tokens)
}

// Hop returns the (in, out) tokens for hop i. The last hop closes
// back to the base token.
func (c *Cycle) Hop(i int) (*asset.Asset, *asset.Asset) {
	return c.Tokens[i], c.Tokens[(i+1)%len(c.Tokens)]
}

// Fingerprint returns a stable identifier for the token sequence.
func (c *Cycle) Fingerprint() string {
	var sb strings.Builder
	for _, t := range c.Tokens {
		sb.WriteString(strings.ToLower(t.Address().Hex()))
		sb.WriteByte('>')
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:8])
}

// String renders the cycle as a symbol path.
func (c *Cycle) String() string {
	parts := make([]string, 0, len(c.Tokens)+1)
	for _, t := range c.Tokens {
		parts = append(parts, t.Symbol())
	}
	parts = append(parts, c.Base().Symbol())
	return strings.Join(parts, " -> ")
}

// EvaluatedCycle is a cycle priced at a concrete notional.
type EvaluatedCycle struct {
	Cycle *Cycle

	// Quotes holds the per-hop quotes used, in hop order.
	Quotes []*liquidity.Quote

	// AmountIn is the starting notional in base token raw units.
	AmountIn *big.Int

	// AmountOut is the final amount after the closing hop.
	AmountOut *big.Int

	// Profit is AmountOut - AmountIn, positive for profitable cycles.
	Profit *big.Int

	// ProfitPct is the profit percentage with basis-point precision.
	ProfitPct float64
}

// ProfitPercent computes the profit percentage of out over in with
// basis-point precision. Integer bps are computed first so sub-bip
// noise does not rank cycles.
func ProfitPercent(amountIn, amountOut *big.Int) float64 {
	if amountIn == nil || amountIn.Sign() <= 0 || amountOut == nil {
		return 0
	}
	profit := new(big.Int).Sub(amountOut, amountIn)
	bps := new(big.Int).Mul(profit, big.NewInt(10000))
	bps.Quo(bps, amountIn)
	return float64(bps.Int64()) / 100.0
}

// MeanPairScore averages a score function over the cycle's hops.
// Used as a tie-breaker between equally profitable cycles.
func (e *EvaluatedCycle) MeanPairScore(score func(a, b *asset.Asset) float64) float64 {
	if e.Cycle.Len() == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < e.Cycle.Len(); i++ {
		in, out := e.Cycle.Hop(i)
		sum += score(in, out)
	}
	return sum / float64(e.Cycle.Len())
}
