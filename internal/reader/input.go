package reader

const (
	KeyNext = "ArrowRight"
	KeyPrev = "ArrowLeft"

	// Breakpoint is the layout width from which readers are treated as
	// keyboard-driven.
	Breakpoint = 768

	// TapRetreatZone is the fraction of the content width, from the left
	// edge, where a tap goes back.
	TapRetreatZone = 0.4
)

type Action int

const (
	ActionNone Action = iota
	ActionAdvance
	ActionRetreat
)

func (a Action) String() string {
	switch a {
	case ActionAdvance:
		return "advance"
	case ActionRetreat:
		return "retreat"
	default:
		return "none"
	}
}

func KeyAction(key string) Action {
	switch key {
	case KeyNext:
		return ActionAdvance
	case KeyPrev:
		return ActionRetreat
	}
	return ActionNone
}

// Layout describes the reader's display.
type Layout struct {
	Width       int  `json:"width"`
	FinePointer bool `json:"fine_pointer"`
}

func (l Layout) PointerCapable() bool {
	return l.Width >= Breakpoint || l.FinePointer
}

// TapAction maps a tap at x (pixels from the content's left edge) to an
// action. Pointer-capable layouts ignore taps.
func (l Layout) TapAction(x float64) Action {
	if l.PointerCapable() {
		return ActionNone
	}
	if x < TapRetreatZone*float64(l.Width) {
		return ActionRetreat
	}
	return ActionAdvance
}
