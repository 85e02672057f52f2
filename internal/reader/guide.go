package reader

import "time"

// GuideDuration is how long the keyboard guide stays up after mount.
const GuideDuration = 3 * time.Second

// Guide is the one-shot keyboard overlay. It starts at most once per
// session.
type Guide struct {
	started bool
	until   time.Time
}

// Start shows the guide for pointer-capable layouts on the first call.
func (g *Guide) Start(now time.Time, layout Layout) {
	if g.started {
		return
	}
	g.started = true
	if layout.PointerCapable() {
		g.until = now.Add(GuideDuration)
	}
}

func (g *Guide) Visible(now time.Time) bool {
	return g.started && now.Before(g.until)
}
