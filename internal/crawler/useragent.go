package crawler

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Identity selection strategies.
const (
	// StrategyRandom picks a uniformly random identity for every request.
	StrategyRandom = "random"

	// StrategyRotate walks the pool in order and wraps around.
	StrategyRotate = "rotate"
)

// UserAgentPicker selects client identities from a fixed pool.
// The pool is copied on construction and never modified afterwards.
type UserAgentPicker struct {
	agents   []string
	strategy string

	mu   sync.Mutex
	rng  *rand.Rand
	next int
}

// PickerOption configures a UserAgentPicker.
type PickerOption func(*UserAgentPicker)

// WithRandSource sets the random source used by StrategyRandom.
// Tests use a seeded source to get a reproducible sequence.
func WithRandSource(src rand.Source) PickerOption {
	return func(p *UserAgentPicker) {
		p.rng = rand.New(src) //nolint:gosec // identity selection is not security sensitive
	}
}

// NewUserAgentPicker creates a picker over agents using the given strategy.
func NewUserAgentPicker(agents []string, strategy string, opts ...PickerOption) (*UserAgentPicker, error) {
	if len(agents) == 0 {
		return nil, ErrNoUserAgents
	}
	if strategy != StrategyRandom && strategy != StrategyRotate {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	pool := make([]string, len(agents))
	copy(pool, agents)

	p := &UserAgentPicker{
		agents:   pool,
		strategy: strategy,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // see WithRandSource
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Pick returns the next identity.
func (p *UserAgentPicker) Pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.strategy == StrategyRotate {
		agent := p.agents[p.next%len(p.agents)]
		p.next++
		return agent
	}
	return p.agents[p.rng.IntN(len(p.agents))]
}

// Agents returns a copy of the pool.
func (p *UserAgentPicker) Agents() []string {
	out := make([]string, len(p.agents))
	copy(out, p.agents)
	return out
}

// Strategy returns the selection strategy name.
func (p *UserAgentPicker) Strategy() string {
	return p.strategy
}
