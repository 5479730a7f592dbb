// Package score provides credit bureau stand-ins for the loan workflow.
package score

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Dan9191/bank-ledger/internal/models"
)

// Gate evaluates a customer's credit score. Implementations may call a remote
// bureau; callers should treat Evaluate as slow and fallible.
type Gate interface {
	Evaluate(ctx context.Context, customerID int64) (models.ScoreResult, error)
}

// RandomGate draws a uniformly distributed score in [1, 10]
type RandomGate struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomGate seeds a RandomGate from the clock
func NewRandomGate() *RandomGate {
	return NewRandomGateWithSeed(time.Now().UnixNano())
}

// NewRandomGateWithSeed returns a RandomGate producing a reproducible sequence
func NewRandomGateWithSeed(seed int64) *RandomGate {
	return &RandomGate{rnd: rand.New(rand.NewSource(seed))}
}

// Evaluate ignores the customer and returns a random verdict
func (g *RandomGate) Evaluate(ctx context.Context, customerID int64) (models.ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ScoreResult{}, err
	}
	g.mu.Lock()
	s := g.rnd.Intn(models.MaxScore) + models.MinScore
	g.mu.Unlock()
	return models.NewScoreResult(s), nil
}

// FixedGate always returns the same score, optionally overridden per customer
type FixedGate struct {
	Score     int
	Overrides map[int64]int
}

// Evaluate returns the configured score for the customer
func (g FixedGate) Evaluate(ctx context.Context, customerID int64) (models.ScoreResult, error) {
	if s, ok := g.Overrides[customerID]; ok {
		return models.NewScoreResult(s), nil
	}
	return models.NewScoreResult(g.Score), nil
}

var (
	_ Gate = (*RandomGate)(nil)
	_ Gate = FixedGate{}
)
