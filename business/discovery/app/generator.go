package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mvaldes/flashcycle/business/discovery/domain"
	"github.com/mvaldes/flashcycle/internal/asset"
	"github.com/mvaldes/flashcycle/internal/cache"
	"github.com/mvaldes/flashcycle/internal/logger"
)

// GeneratorConfig holds configuration for the cycle generator.
type GeneratorConfig struct {
	CycleLengths     []int         // token counts per cycle, first == last, each >= 3
	BeamWidthPerHop  int           // beam width is this times the cycle length
	ExplorationRatio float64       // fraction of results replaced by random walks
	SeedTokens       int           // fallback seed count when no stablecoins/majors exist
	Seed             int64         // rng seed for jitter and exploration
	CacheTTL         time.Duration // reuse window for generated cycle sets
}

// DefaultGeneratorConfig returns sensible defaults.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		CycleLengths:     []int{3, 4, 5},
		BeamWidthPerHop:  25,
		ExplorationRatio: 0.1,
		SeedTokens:       5,
		Seed:             time.Now().UnixNano(),
		CacheTTL:         30 * time.Second,
	}
}

// CycleGenerator produces candidate cycles over the token universe
// with a beam search guided by pair liquidity scores and token
// weights. A configured fraction of the output is replaced by pure
// random walks so the search never starves pairs the scores
// currently rank low.
type CycleGenerator struct {
	config    GeneratorConfig
	liquidity LiquidityView
	weights   WeightView
	logger    logger.LoggerInterface
	cache     *cache.Cache[string, []*domain.Cycle]

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewCycleGenerator creates a generator over the given views.
func NewCycleGenerator(cfg GeneratorConfig, liq LiquidityView, weights WeightView, log logger.LoggerInterface) *CycleGenerator {
	if cfg.SeedTokens <= 0 {
		cfg.SeedTokens = 5
	}
	return &CycleGenerator{
		config:    cfg,
		liquidity: liq,
		weights:   weights,
		logger:    log,
		cache:     cache.New[string, []*domain.Cycle](time.Minute),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate returns candidate cycles over the token universe. Results
// are cached per token-set fingerprint so back-to-back detection
// passes within the reuse window skip regeneration entirely.
func (g *CycleGenerator) Generate(ctx context.Context, universe []*asset.Asset) []*domain.Cycle {
	key := g.cacheKey(universe)
	if cached, ok := g.cache.Get(ctx, key); ok {
		return cached
	}

	seeds := g.seedTokens(universe)
	if len(seeds) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var cycles []*domain.Cycle

	add := func(c *domain.Cycle) bool {
		fp := c.Fingerprint()
		if _, dup := seen[fp]; dup {
			return false
		}
		seen[fp] = struct{}{}
		cycles = append(cycles, c)
		return true
	}

	for _, length := range g.config.CycleLengths {
		if length < 3 {
			continue
		}
		for _, c := range g.beamSearch(seeds, universe, length) {
			add(c)
		}
	}

	// Replace a slice of the greedy results with random walks.
	replace := int(float64(len(cycles)) * g.config.ExplorationRatio)
	if replace > 0 {
		cycles = cycles[:len(cycles)-replace]
		for added := 0; added < replace; {
			c := g.randomWalk(seeds, universe)
			if c == nil {
				break
			}
			if add(c) {
				added++
			}
		}
	}

	g.logger.Debug(ctx, "cycles generated",
		"seeds", len(seeds), "count", len(cycles))

	g.cache.Set(ctx, key, cycles, g.config.CacheTTL)
	return cycles
}

func (g *CycleGenerator) cacheKey(universe []*asset.Asset) string {
	addrs := make([]string, 0, len(universe))
	for _, t := range universe {
		addrs = append(addrs, strings.ToLower(t.Address().Hex()))
	}
	sort.Strings(addrs)
	for _, l := range g.config.CycleLengths {
		addrs = append(addrs, fmt.Sprint(l))
	}
	sum := sha256.Sum256([]byte(strings.Join(addrs, "|")))
	return hex.EncodeToString(sum[:8])
}

// seedTokens picks beam seeds: stablecoins and majors sorted by
// weight, or the first configured tokens when none exist.
func (g *CycleGenerator) seedTokens(universe []*asset.Asset) []*asset.Asset {
	var seeds []*asset.Asset
	for _, t := range universe {
		if t.IsStablecoin() || t.IsMajor() {
			seeds = append(seeds, t)
		}
	}
	if len(seeds) == 0 {
		n := g.config.SeedTokens
		if n > len(universe) {
			n = len(universe)
		}
		return universe[:n]
	}

	sort.SliceStable(seeds, func(i, j int) bool {
		return g.weights.Weight(seeds[i].ID()) > g.weights.Weight(seeds[j].ID())
	})
	return seeds
}

type partialPath struct {
	tokens []*asset.Asset
	score  float64
}

// beamSearch expands paths hop by hop. The final step only accepts
// the extension closing back to the path's first token. length counts
// tokens including the implicit return, so a length-4 cycle walks
// three hops.
func (g *CycleGenerator) beamSearch(seeds, universe []*asset.Asset, length int) []*domain.Cycle {
	width := g.config.BeamWidthPerHop * length

	beam := make([]partialPath, 0, len(seeds))
	for _, s := range seeds {
		beam = append(beam, partialPath{
			tokens: []*asset.Asset{s},
			score:  g.weights.Weight(s.ID()),
		})
	}

	for step := 1; step < length; step++ {
		closing := step == length-1
		var next []partialPath

		for _, p := range beam {
			first := p.tokens[0]
			last := p.tokens[len(p.tokens)-1]

			if closing {
				if !g.liquidity.HasLiquidity(last.Address(), first.Address()) {
					continue
				}
				next = append(next, partialPath{
					tokens: p.tokens,
					score:  p.score + g.liquidity.PairLiquidityScore(last.Address(), first.Address()),
				})
				continue
			}

			for _, cand := range universe {
				if pathContains(p.tokens, cand) {
					continue
				}
				if !g.liquidity.HasLiquidity(last.Address(), cand.Address()) {
					continue
				}

				pairScore := g.liquidity.PairLiquidityScore(last.Address(), cand.Address())
				weight := g.weights.Weight(cand.ID())

				extended := make([]*asset.Asset, len(p.tokens), len(p.tokens)+1)
				copy(extended, p.tokens)
				extended = append(extended, cand)

				next = append(next, partialPath{
					tokens: extended,
					score:  (p.score + pairScore*weight) * g.jitter(),
				})
			}
		}

		if len(next) == 0 {
			return nil // beam emptied, nothing closeable at this length
		}

		sort.SliceStable(next, func(i, j int) bool { return next[i].score > next[j].score })
		if len(next) > width {
			next = next[:width]
		}
		beam = next
	}

	cycles := make([]*domain.Cycle, 0, len(beam))
	for _, p := range beam {
		if len(p.tokens) == length-1 {
			cycles = append(cycles, domain.NewCycle(p.tokens))
		}
	}
	return cycles
}

// randomWalk draws one uniform random cycle, restarting on dead
// ends a bounded number of times. The first token is biased toward
// stablecoins by drawing from the seed set.
func (g *CycleGenerator) randomWalk(seeds, universe []*asset.Asset) *domain.Cycle {
	lengths := g.config.CycleLengths

	for attempt := 0; attempt < 16; attempt++ {
		g.rngMu.Lock()
		length := lengths[g.rng.Intn(len(lengths))]
		start := seeds[g.rng.Intn(len(seeds))]
		g.rngMu.Unlock()

		tokens := []*asset.Asset{start}
		for len(tokens) < length-1 {
			cand := g.randomCandidate(universe, tokens)
			if cand == nil {
				break
			}
			tokens = append(tokens, cand)
		}

		if len(tokens) != length-1 {
			continue
		}
		if !g.liquidity.HasLiquidity(tokens[len(tokens)-1].Address(), start.Address()) {
			continue
		}
		return domain.NewCycle(tokens)
	}
	return nil
}

func (g *CycleGenerator) randomCandidate(universe, path []*asset.Asset) *asset.Asset {
	last := path[len(path)-1]

	var viable []*asset.Asset
	for _, cand := range universe {
		if pathContains(path, cand) {
			continue
		}
		if !g.liquidity.HasLiquidity(last.Address(), cand.Address()) {
			continue
		}
		viable = append(viable, cand)
	}
	if len(viable) == 0 {
		return nil
	}

	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return viable[g.rng.Intn(len(viable))]
}

func (g *CycleGenerator) jitter() float64 {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return 0.95 + g.rng.Float64()*0.1
}

func pathContains(path []*asset.Asset, a *asset.Asset) bool {
	for _, t := range path {
		if t.Equals(a) {
			return true
		}
	}
	return false
}

// Close releases generator resources.
func (g *CycleGenerator) Close() {
	g.cache.Close()
}
