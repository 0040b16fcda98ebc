// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"
	"time"
)

// FeeData holds current network fee information.
type FeeData struct {
	GasPrice  *big.Int // legacy gas price in wei
	BaseFee   *big.Int // EIP-1559 base fee, nil on pre-London chains
	Timestamp time.Time
}

// NewFeeData creates a FeeData snapshot.
func NewFeeData(gasPrice, baseFee *big.Int) *FeeData {
	return &FeeData{
		GasPrice:  gasPrice,
		BaseFee:   baseFee,
		Timestamp: time.Now(),
	}
}

// GasPriceGwei returns the gas price in gwei.
func (f *FeeData) GasPriceGwei() float64 {
	return weiToGwei(f.GasPrice)
}

// BaseFeeGwei returns the base fee in gwei, 0 when unavailable.
func (f *FeeData) BaseFeeGwei() float64 {
	return weiToGwei(f.BaseFee)
}

func weiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	gwei, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9)).Float64()
	return gwei
}

// CongestionFactor estimates network congestion in [0,1] from current
// fees relative to configured low/high reference bounds. The EIP-1559
// base fee ratio is preferred when a base fee is known.
func (f *FeeData) CongestionFactor(lowGwei, highGwei float64) float64 {
	if highGwei <= lowGwei {
		return 0
	}
	if base := f.BaseFeeGwei(); base > 0 {
		return clamp01(base / highGwei)
	}
	return clamp01((f.GasPriceGwei() - lowGwei) / (highGwei - lowGwei))
}

// ScaleGasPrice bumps price proportionally to the congestion factor,
// up to surcharge at full congestion, capped at maxWei.
func ScaleGasPrice(price *big.Int, congestion, surcharge float64, maxWei *big.Int) *big.Int {
	if price == nil {
		return nil
	}
	multiplier := 1.0 + clamp01(congestion)*surcharge

	scaled := new(big.Float).Mul(new(big.Float).SetInt(price), big.NewFloat(multiplier))
	result, _ := scaled.Int(nil)

	if maxWei != nil && result.Cmp(maxWei) > 0 {
		return new(big.Int).Set(maxWei)
	}
	return result
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
