package middleware

import (
	"strings"
	"sync"
)

// Policy maps a route ("METHOD /path") to the set of roles allowed to call
// it. An empty set marks the route public. Routes never registered fall
// back to requiring any recognised role, so unknown surface fails closed
// rather than open.
//
// The table is read on every request and may be updated at runtime, so all
// access goes through the RWMutex.
type Policy struct {
	mu       sync.RWMutex
	routes   map[string][]string
	fallback []string
}

// NewPolicy builds a policy whose unknown-route fallback requires any of
// the given roles.
func NewPolicy(fallback ...string) *Policy {
	return &Policy{
		routes:   make(map[string][]string),
		fallback: append([]string(nil), fallback...),
	}
}

// RouteKey normalises a method/path pair into the policy key.
func RouteKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// Set registers or replaces the required roles for a route. Calling it with
// no roles marks the route public.
func (p *Policy) Set(route string, roles ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[route] = append([]string(nil), roles...)
}

// Public marks a route as requiring no authentication.
func (p *Policy) Public(route string) { p.Set(route) }

// RequiredRoles returns a copy of the roles required for a route and
// whether the route is known. Unknown routes get the fallback set.
func (p *Policy) RequiredRoles(route string) ([]string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if roles, ok := p.routes[route]; ok {
		return append([]string(nil), roles...), true
	}
	return append([]string(nil), p.fallback...), false
}

// Snapshot returns a copy of the whole table for inspection.
func (p *Policy) Snapshot() map[string][]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string][]string, len(p.routes))
	for route, roles := range p.routes {
		out[route] = append([]string(nil), roles...)
	}
	return out
}
