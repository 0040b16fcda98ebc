// Package domain contains the core domain types for the execution context.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	liquidity "github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/asset"
)

// Strategy hashes bucket time so retries within the window collide
// on-chain instead of double-executing.
const hashTimeBucket = 5 * time.Minute

// Leg is one encodable half of a cycle: a swap path and the venue
// for each hop.
type Leg struct {
	Path  []common.Address
	DEXes []liquidity.DEXID
}

// Hops returns the number of swaps in the leg.
func (l Leg) Hops() int {
	if len(l.Path) == 0 {
		return 0
	}
	return len(l.Path) - 1
}

// Strategy is an executable flash-loan arbitrage descriptor.
type Strategy struct {
	ID   uuid.UUID
	Hash string

	Base *asset.Asset
	Legs [2]Leg

	// FlashLoanAmount is the borrow size in base token raw units.
	FlashLoanAmount *big.Int

	// MinAmountOut is the revert floor after slippage tolerance.
	MinAmountOut *big.Int

	// EstimatedProfit is the simulated profit in base token raw units.
	EstimatedProfit *big.Int

	// ProfitPct is the simulated profit percentage.
	ProfitPct float64

	CreatedAt time.Time
}

// NewStrategy assembles a strategy and computes its hash.
func NewStrategy(base *asset.Asset, legs [2]Leg, flashLoanAmount, minAmountOut, estimatedProfit *big.Int, profitPct float64) *Strategy {
	now := time.Now()
	return &Strategy{
		ID:              uuid.New(),
		Hash:            strategyHash(base, legs, now),
		Base:            base,
		Legs:            legs,
		FlashLoanAmount: flashLoanAmount,
		MinAmountOut:    minAmountOut,
		EstimatedProfit: estimatedProfit,
		ProfitPct:       profitPct,
		CreatedAt:       now,
	}
}

// TotalHops returns the number of swaps across both legs.
func (s *Strategy) TotalHops() int {
	return s.Legs[0].Hops() + s.Legs[1].Hops()
}

// strategyHash identifies a strategy by its token path, venue
// sequence and a coarse time bucket.
func strategyHash(base *asset.Asset, legs [2]Leg, at time.Time) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(base.Address().Hex()))
	for _, leg := range legs {
		for _, addr := range leg.Path {
			sb.WriteString(strings.ToLower(addr.Hex()))
		}
		for _, dex := range leg.DEXes {
			sb.WriteString(string(dex))
		}
	}
	sb.WriteString(fmt.Sprint(at.Unix() / int64(hashTimeBucket.Seconds())))

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// MinAmountOutFor computes the slippage-adjusted floor:
// amount * (1 + profitPct/100) * (1 - slippageBps/10000).
func MinAmountOutFor(flashLoanAmount *big.Int, profitPct float64, slippageBps int64) *big.Int {
	if flashLoanAmount == nil {
		return nil
	}

	expected := new(big.Float).Mul(
		new(big.Float).SetInt(flashLoanAmount),
		big.NewFloat(1+profitPct/100),
	)
	floored := new(big.Float).Mul(
		expected,
		big.NewFloat(1-float64(slippageBps)/10000),
	)

	out, _ := floored.Int(nil)
	return out
}
