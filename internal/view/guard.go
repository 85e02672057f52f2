// Package view holds what every mounted view shares: the stale-response
// guard that keeps late gateway results from landing after a newer load
// or after the view has been closed.
package view

import "sync"

// Token identifies one Load call.
type Token uint64

type Guard struct {
	mu     sync.Mutex
	latest Token
	closed bool
}

// Begin starts a new load and invalidates every earlier token.
func (g *Guard) Begin() Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest++
	return g.latest
}

// Current reports whether t is still the newest token of an open view.
func (g *Guard) Current(t Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed && t == g.latest
}

// Apply runs fn only while t is current. fn runs with the guard held, so a
// concurrent Close or Begin cannot interleave with it.
func (g *Guard) Apply(t Token, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || t != g.latest {
		return false
	}
	fn()
	return true
}

// Close marks the view unmounted. Every outstanding token goes stale.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}

func (g *Guard) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}
