package debounce

import "time"

// Key identifies one cooldown slot, e.g. {2605, Y, LONG} or {2605, Y-P, high}.
type Key struct {
	Group   string
	Subject string
	Side    string
}

func (k Key) String() string { return k.Group + "/" + k.Subject + "/" + k.Side }

// State of a key relative to its cooldown.
type State int

const (
	Unarmed State = iota // never emitted
	Cooling              // emitted, cooldown not elapsed
	Armed                // emitted, cooldown elapsed
)

func (s State) String() string {
	switch s {
	case Unarmed:
		return "unarmed"
	case Cooling:
		return "cooling"
	case Armed:
		return "armed"
	default:
		return "unknown"
	}
}

// Table records the last prominent emission per key. One Table is one namespace;
// breakout and spread alerts each get their own. Single-writer, not goroutine safe.
type Table struct {
	now  func() time.Time
	last map[Key]time.Time
}

// New builds a Table. A nil clock uses time.Now.
func New(clock func() time.Time) *Table {
	if clock == nil {
		clock = time.Now
	}
	return &Table{now: clock, last: make(map[Key]time.Time)}
}

// MayEmit returns true and records the current time when the key is unarmed or its
// cooldown has elapsed; otherwise it returns false and leaves the table untouched.
func (t *Table) MayEmit(key Key, cooldown time.Duration) bool {
	now := t.now()
	if last, ok := t.last[key]; ok && now.Sub(last) < cooldown {
		return false
	}
	t.last[key] = now
	return true
}

// State derives the key's state from the stored timestamp without mutating it.
func (t *Table) State(key Key, cooldown time.Duration) State {
	last, ok := t.last[key]
	switch {
	case !ok:
		return Unarmed
	case t.now().Sub(last) < cooldown:
		return Cooling
	default:
		return Armed
	}
}

// LastEmitted returns the recorded emission time for key.
func (t *Table) LastEmitted(key Key) (time.Time, bool) {
	last, ok := t.last[key]
	return last, ok
}
