// Package hotkey turns global key events into engage/release edges for
// a hold-to-talk key combination.
package hotkey

import (
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// Combination is the set of keycodes that must be held simultaneously.
type Combination []uint16

// ParseCombination resolves key names ("rshift", "ralt", ...) against
// the gohook keycode table.
func ParseCombination(names []string) (Combination, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("empty key combination")
	}
	combo := make(Combination, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		code, ok := hook.Keycode[name]
		if !ok {
			return nil, fmt.Errorf("unknown key %q", name)
		}
		combo = append(combo, code)
	}
	return combo, nil
}

// Trigger tracks the globally held key set and fires engage exactly
// once when it first covers the combination, release exactly once when
// coverage is lost. Repeat press events for a held key and releases of
// never-pressed keys are no-ops.
type Trigger struct {
	combo map[uint16]bool

	mu      sync.Mutex
	held    map[uint16]bool
	engaged bool

	onEngage  func()
	onRelease func()
}

// New returns a trigger for combo. The callbacks run on the hook
// event goroutine; keep them short or hand off.
func New(combo Combination, onEngage, onRelease func()) *Trigger {
	set := make(map[uint16]bool, len(combo))
	for _, c := range combo {
		set[c] = true
	}
	return &Trigger{
		combo:     set,
		held:      make(map[uint16]bool),
		onEngage:  onEngage,
		onRelease: onRelease,
	}
}

// Run subscribes to global keyboard events and dispatches edges until
// Close is called. Blocks; run it on its own goroutine.
func (t *Trigger) Run() {
	events := hook.Start()
	for ev := range events {
		switch ev.Kind {
		case hook.KeyDown, hook.KeyHold:
			t.press(ev.Keycode)
		case hook.KeyUp:
			t.release(ev.Keycode)
		}
	}
}

// Close stops the global hook and unblocks Run.
func (t *Trigger) Close() {
	hook.End()
}

func (t *Trigger) press(code uint16) {
	t.mu.Lock()
	if t.held[code] {
		t.mu.Unlock()
		return // key repeat
	}
	t.held[code] = true
	fire := !t.engaged && t.covered()
	if fire {
		t.engaged = true
	}
	t.mu.Unlock()

	if fire && t.onEngage != nil {
		t.onEngage()
	}
}

func (t *Trigger) release(code uint16) {
	t.mu.Lock()
	if !t.held[code] {
		t.mu.Unlock()
		return // release without a matching press
	}
	delete(t.held, code)
	fire := t.engaged && !t.covered()
	if fire {
		t.engaged = false
	}
	t.mu.Unlock()

	if fire && t.onRelease != nil {
		t.onRelease()
	}
}

// covered reports whether every combination key is currently held.
// Callers hold t.mu.
func (t *Trigger) covered() bool {
	for code := range t.combo {
		if !t.held[code] {
			return false
		}
	}
	return true
}
