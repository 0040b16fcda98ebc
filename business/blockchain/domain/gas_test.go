package domain

import (
	"math/big"
	"testing"
)

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func TestCongestionFactor(t *testing.T) {
	tests := []struct {
		name     string
		gasPrice *big.Int
		baseFee  *big.Int
		low      float64
		high     float64
		want     float64
	}{
		{
			name:     "below_low_bound",
			gasPrice: gwei(5),
			low:      10, high: 100,
			want: 0,
		},
		{
			name:     "midpoint",
			gasPrice: gwei(55),
			low:      10, high: 100,
			want: 0.5,
		},
		{
			name:     "above_high_bound_clamped",
			gasPrice: gwei(500),
			low:      10, high: 100,
			want: 1,
		},
		{
			name:     "base_fee_preferred",
			gasPrice: gwei(500), // would clamp to 1 without base fee
			baseFee:  gwei(50),
			low:      10, high: 100,
			want: 0.5,
		},
		{
			name:     "degenerate_bounds",
			gasPrice: gwei(55),
			low:      100, high: 100,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd := NewFeeData(tt.gasPrice, tt.baseFee)
			got := fd.CongestionFactor(tt.low, tt.high)
			if got != tt.want {
				t.Errorf("CongestionFactor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScaleGasPrice(t *testing.T) {
	tests := []struct {
		name       string
		price      *big.Int
		congestion float64
		surcharge  float64
		max        *big.Int
		want       *big.Int
	}{
		{
			name:       "no_congestion_unchanged",
			price:      gwei(20),
			congestion: 0, surcharge: 0.5,
			max:  gwei(100),
			want: gwei(20),
		},
		{
			name:       "full_congestion_full_surcharge",
			price:      gwei(20),
			congestion: 1, surcharge: 0.5,
			max:  gwei(100),
			want: gwei(30),
		},
		{
			name:       "capped_at_max",
			price:      gwei(90),
			congestion: 1, surcharge: 0.5,
			max:  gwei(100),
			want: gwei(100),
		},
		{
			name:       "congestion_clamped",
			price:      gwei(20),
			congestion: 5, surcharge: 0.5,
			max:  gwei(100),
			want: gwei(30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaleGasPrice(tt.price, tt.congestion, tt.surcharge, tt.max)
			if got.Cmp(tt.want) != 0 {
				t.Errorf("ScaleGasPrice() = %s, want %s", got, tt.want)
			}
		})
	}
}
