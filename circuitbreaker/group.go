package circuitbreaker

import (
	"sort"
	"sync"
)

// Group hands out one breaker per provider, created on first use from a
// shared template config.
type Group struct {
	template Config

	mu       sync.Mutex
	breakers map[string]CircuitBreaker
}

// NewGroup creates an empty group. template.Name is ignored.
func NewGroup(template Config) *Group {
	return &Group{template: template, breakers: make(map[string]CircuitBreaker)}
}

// Get returns the breaker for name, creating it if needed.
func (g *Group) Get(name string) CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[name]; ok {
		return cb
	}
	cfg := g.template
	cfg.Name = name
	cb := New(cfg)
	g.breakers[name] = cb
	return cb
}

// States returns the current state of every known breaker.
func (g *Group) States() map[string]State {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]State, len(g.breakers))
	for name, cb := range g.breakers {
		out[name] = cb.State()
	}
	return out
}

// Names returns the providers that have a breaker, sorted.
func (g *Group) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	names := make([]string, 0, len(g.breakers))
	for name := range g.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
