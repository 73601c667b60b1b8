// Package filler generates synthetic board messages and mixes them with
// persisted ones so a sparse plaza still feels inhabited.
//
// Nothing here touches storage. Randomness comes from a seedable PCG
// source so feeds can be reproduced in tests.
package filler

import (
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/dusk/pkg/core"
)

const (
	// DefaultCount is how many filler messages a display cycle generates.
	DefaultCount = 8

	// FeedLimit caps a mixed feed.
	FeedLimit = 15

	// IDPrefix namespaces synthetic ids. Dispatch relies on core.Origin, not on this.
	IDPrefix = "filler_"

	maxResonance = 25
	maxAge       = time.Hour
)

// DefaultPool holds the canned sentences filler is drawn from.
var DefaultPool = []string{
	"The starlight feels especially gentle tonight",
	"Nights spent missing someone are always long",
	"If I could start over, I would still choose to meet you",
	"The moon is lovely tonight, but not as lovely as you",
	"Some things can only be said to the night",
	"Loneliness is a required course for grown-ups",
	"Hoping tomorrow is a little better",
	"Right now, we are all children of the night",
	"May every sleepless night mean something",
	"The night is deep, yet longing stays awake",
	"The wind outside sounds like it is telling me something",
	"The city is unusually quiet tonight",
	"Remembering that summer long ago",
	"How good it would be if time could flow backwards",
	"Some people, once missed, are missed for a lifetime",
	"Night always makes people more sentimental",
	"Falling asleep to the sound of rain is a kind of happiness",
	"Is the person far away looking at the same sky",
}

// Generator produces synthetic messages. It is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	pool  []string
	clock core.Clock
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generator deterministic.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithPool replaces the canned sentences. An empty pool keeps the default.
func WithPool(pool []string) Option {
	return func(g *Generator) {
		if len(pool) > 0 {
			g.pool = append([]string(nil), pool...)
		}
	}
}

// WithClock sets the time source for createdAt.
func WithClock(c core.Clock) Option {
	return func(g *Generator) {
		g.clock = c
	}
}

// New creates a Generator, randomly seeded unless WithSeed is given.
func New(opts ...Option) *Generator {
	g := &Generator{
		pool:  DefaultPool,
		clock: core.SystemClock,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

// Generate returns count synthetic messages drawn with replacement from the pool.
func (g *Generator) Generate(count int) []core.BoardMessage {
	if count <= 0 {
		return []core.BoardMessage{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	out := make([]core.BoardMessage, count)
	for i := range out {
		out[i] = core.BoardMessage{
			ID:             IDPrefix + strconv.FormatUint(g.rng.Uint64()>>28, 36),
			Content:        g.pool[g.rng.IntN(len(g.pool))],
			ResonanceCount: g.rng.IntN(maxResonance),
			CreatedAt:      now.Add(-time.Duration(g.rng.Int64N(int64(maxAge)))),
			Origin:         core.OriginSynthetic,
		}
	}
	return out
}

// Mix concatenates persisted and synthetic messages, shuffles them and
// keeps at most limit. limit <= 0 keeps everything.
func (g *Generator) Mix(persisted, synthetic []core.BoardMessage, limit int) []core.BoardMessage {
	all := make([]core.BoardMessage, 0, len(persisted)+len(synthetic))
	all = append(all, persisted...)
	all = append(all, synthetic...)

	g.mu.Lock()
	g.rng.Shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})
	g.mu.Unlock()

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

var _ core.FillerSource = (*Generator)(nil)
