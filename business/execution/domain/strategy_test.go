package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	liquidity "github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/asset"
)

func testAsset(t *testing.T, symbol string, lastByte byte) *asset.Asset {
	t.Helper()
	addr := common.BytesToAddress([]byte{lastByte})
	return asset.NewAsset(asset.NewTokenAssetID(1, addr), symbol, 18, asset.CategoryMajor)
}

func testLegs() [2]Leg {
	a := common.BytesToAddress([]byte{0x01})
	b := common.BytesToAddress([]byte{0x02})
	c := common.BytesToAddress([]byte{0x03})

	return [2]Leg{
		{Path: []common.Address{a, b}, DEXes: []liquidity.DEXID{"uniswap-v2"}},
		{Path: []common.Address{b, c, a}, DEXes: []liquidity.DEXID{"uniswap-v3", "curve"}},
	}
}

func TestLeg_Hops(t *testing.T) {
	legs := testLegs()

	if got := legs[0].Hops(); got != 1 {
		t.Errorf("first leg hops = %d, want 1", got)
	}
	if got := legs[1].Hops(); got != 2 {
		t.Errorf("second leg hops = %d, want 2", got)
	}
	if got := (Leg{}).Hops(); got != 0 {
		t.Errorf("empty leg hops = %d, want 0", got)
	}
}

func TestStrategy_TotalHops(t *testing.T) {
	base := testAsset(t, "WETH", 0x01)
	s := NewStrategy(base, testLegs(), big.NewInt(1000), big.NewInt(990), big.NewInt(10), 1.0)

	if got := s.TotalHops(); got != 3 {
		t.Errorf("TotalHops() = %d, want 3", got)
	}
}

func TestStrategyHash_StableWithinBucket(t *testing.T) {
	base := testAsset(t, "WETH", 0x01)
	legs := testLegs()
	at := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)

	h1 := strategyHash(base, legs, at)
	h2 := strategyHash(base, legs, at.Add(time.Minute))
	if h1 != h2 {
		t.Error("hash should be stable within a time bucket")
	}

	h3 := strategyHash(base, legs, at.Add(hashTimeBucket))
	if h1 == h3 {
		t.Error("hash should roll over across buckets")
	}

	// The venue sequence is part of the identity.
	swapped := legs
	swapped[1].DEXes = []liquidity.DEXID{"curve", "uniswap-v3"}
	if strategyHash(base, swapped, at) == h1 {
		t.Error("hash should change with the venue sequence")
	}
}

func TestMinAmountOutFor(t *testing.T) {
	amount := big.NewInt(1_000_000_000) // 1000 units at 6 decimals

	// 1% expected profit minus 50 bps slippage tolerance:
	// 1e9 * 1.01 * 0.995 = 1_004_950_000.
	got := MinAmountOutFor(amount, 1.0, 50)
	want := big.NewInt(1_004_950_000)

	diff := new(big.Int).Sub(got, want)
	if diff.CmpAbs(big.NewInt(2)) > 0 {
		t.Errorf("MinAmountOutFor() = %s, want %s (+-2)", got, want)
	}

	// No profit and no slippage leaves the amount unchanged.
	if got := MinAmountOutFor(amount, 0, 0); got.Cmp(amount) != 0 {
		t.Errorf("identity case = %s, want %s", got, amount)
	}

	if MinAmountOutFor(nil, 1.0, 50) != nil {
		t.Error("nil amount should return nil")
	}
}
