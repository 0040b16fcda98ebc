package domain

import "sync"

const (
	// Pair score bounds and the score assigned to never-seen pairs.
	MinPairScore     = 0.1
	MaxPairScore     = 1.0
	DefaultPairScore = 0.5

	// Priority boost for adapters known to serve a pair.
	servedBoost = 0.3
)

type adapterStats struct {
	attempts  int64
	successes int64
	served    map[PairKey]struct{}
}

// ScoreBook tracks pair liquidity scores and per-venue quote
// reliability. Scores decay toward failure and recover on success so
// a single bad read never blacklists a pair. Safe for concurrent use.
type ScoreBook struct {
	mu       sync.RWMutex
	pairs    map[PairKey]float64
	adapters map[DEXID]*adapterStats
}

// NewScoreBook creates an empty score book.
func NewScoreBook() *ScoreBook {
	return &ScoreBook{
		pairs:    make(map[PairKey]float64),
		adapters: make(map[DEXID]*adapterStats),
	}
}

// PairScore returns the liquidity score for a pair in [MinPairScore,
// MaxPairScore]. Unknown pairs get DefaultPairScore.
func (b *ScoreBook) PairScore(key PairKey) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if s, ok := b.pairs[key]; ok {
		return s
	}
	return DefaultPairScore
}

// Known reports whether the pair has ever been scored.
func (b *ScoreBook) Known(key PairKey) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.pairs[key]
	return ok
}

// RecordQuoteResult folds one quote attempt into the pair score.
func (b *ScoreBook) RecordQuoteResult(key PairKey, success bool) {
	if success {
		b.Blend(key, 0.95, 0.05)
	} else {
		b.Blend(key, 0.95, 0)
	}
}

// Blend updates a pair score as s*keep+add, clamped to the bounds.
// This is the single write path for both quote results and execution
// feedback.
func (b *ScoreBook) Blend(key PairKey, keep, add float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.pairs[key]
	if !ok {
		s = DefaultPairScore
	}
	s = s*keep + add
	if s < MinPairScore {
		s = MinPairScore
	}
	if s > MaxPairScore {
		s = MaxPairScore
	}
	b.pairs[key] = s
}

// RecordAttempt counts one venue query. Success credit is granted
// separately through RecordSelection, only to the venue whose quote
// won the fan-out.
func (b *ScoreBook) RecordAttempt(dex DEXID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats(dex).attempts++
}

// RecordSelection credits the venue that supplied the winning quote
// and marks it as serving the pair.
func (b *ScoreBook) RecordSelection(dex DEXID, key PairKey) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.stats(dex)
	st.successes++
	st.served[key] = struct{}{}
}

func (b *ScoreBook) stats(dex DEXID) *adapterStats {
	st, ok := b.adapters[dex]
	if !ok {
		st = &adapterStats{served: make(map[PairKey]struct{})}
		b.adapters[dex] = st
	}
	return st
}

// SuccessRate returns the venue's historical quote success rate.
// Venues with no history get 1.0 so they are tried eagerly.
func (b *ScoreBook) SuccessRate(dex DEXID) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st, ok := b.adapters[dex]
	if !ok || st.attempts == 0 {
		return 1.0
	}
	return float64(st.successes) / float64(st.attempts)
}

// Serves reports whether the venue has ever won a quote for this pair.
func (b *ScoreBook) Serves(dex DEXID, key PairKey) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st, ok := b.adapters[dex]
	if !ok {
		return false
	}
	_, served := st.served[key]
	return served
}

// AdapterPriority computes the base ordering weight for a venue on a
// pair, before jitter is applied.
func (b *ScoreBook) AdapterPriority(dex DEXID, key PairKey) float64 {
	p := b.SuccessRate(dex)
	if b.Serves(dex, key) {
		p *= 1 + servedBoost
	}
	return p
}
