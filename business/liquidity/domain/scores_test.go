package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	addrA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	addrB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func TestNewPairKey_DirectionIndependent(t *testing.T) {
	if NewPairKey(addrA, addrB) != NewPairKey(addrB, addrA) {
		t.Error("pair key should not depend on direction")
	}
}

func TestScoreBook_PairScoreDefaults(t *testing.T) {
	b := NewScoreBook()
	key := NewPairKey(addrA, addrB)

	if got := b.PairScore(key); got != DefaultPairScore {
		t.Errorf("unknown pair score = %v, want %v", got, DefaultPairScore)
	}
	if b.Known(key) {
		t.Error("pair should not be known before any update")
	}
}

func TestScoreBook_QuoteResultMovesScore(t *testing.T) {
	b := NewScoreBook()
	key := NewPairKey(addrA, addrB)

	b.RecordQuoteResult(key, true)
	afterSuccess := b.PairScore(key)
	if want := 0.5*0.95 + 0.05; afterSuccess != want {
		t.Errorf("score after success = %v, want %v", afterSuccess, want)
	}

	b.RecordQuoteResult(key, false)
	afterFailure := b.PairScore(key)
	if want := afterSuccess * 0.95; afterFailure != want {
		t.Errorf("score after failure = %v, want %v", afterFailure, want)
	}
}

func TestScoreBook_ClampBounds(t *testing.T) {
	b := NewScoreBook()
	key := NewPairKey(addrA, addrB)

	for i := 0; i < 500; i++ {
		b.RecordQuoteResult(key, false)
	}
	if got := b.PairScore(key); got < MinPairScore {
		t.Errorf("score decayed below floor: %v", got)
	}

	for i := 0; i < 500; i++ {
		b.Blend(key, 0.9, 0.2)
	}
	if got := b.PairScore(key); got > MaxPairScore {
		t.Errorf("score grew above ceiling: %v", got)
	}
}

func TestScoreBook_AdapterPriority(t *testing.T) {
	b := NewScoreBook()
	key := NewPairKey(addrA, addrB)
	dex := DEXID("venue-1")

	// No history: full priority, eager trial.
	if got := b.AdapterPriority(dex, key); got != 1.0 {
		t.Errorf("fresh adapter priority = %v, want 1.0", got)
	}

	b.RecordAttempt(dex)
	b.RecordAttempt(dex)
	b.RecordSelection(dex, key)

	if got := b.SuccessRate(dex); got != 0.5 {
		t.Errorf("success rate = %v, want 0.5", got)
	}
	if !b.Serves(dex, key) {
		t.Error("adapter should serve the pair after winning a quote")
	}

	// Served pairs get the boost on top of the success rate.
	if got, want := b.AdapterPriority(dex, key), 0.5*1.3; got != want {
		t.Errorf("priority = %v, want %v", got, want)
	}
}
