package debounce

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMayEmitWithinAndAfterCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)}
	table := New(clock.Now)
	key := Key{Group: "2605", Subject: "Y", Side: "LONG"}

	if !table.MayEmit(key, time.Minute) {
		t.Fatal("首次调用应允许发送")
	}
	clock.Advance(10 * time.Second)
	if table.MayEmit(key, time.Minute) {
		t.Fatal("冷却期内不应再次发送")
	}
	clock.Advance(50 * time.Second)
	if !table.MayEmit(key, time.Minute) {
		t.Fatal("冷却结束后应允许发送")
	}
}

func TestSuppressedCallDoesNotExtendCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	table := New(clock.Now)
	key := Key{Group: "2605", Subject: "Y-P", Side: "high"}

	table.MayEmit(key, time.Minute)
	clock.Advance(59 * time.Second)
	table.MayEmit(key, time.Minute)
	clock.Advance(time.Second)
	if !table.MayEmit(key, time.Minute) {
		t.Fatal("suppressed calls must not move the last-emission timestamp")
	}
}

func TestStateMachine(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	table := New(clock.Now)
	key := Key{Group: "2609", Subject: "OI", Side: "SHORT"}

	if s := table.State(key, time.Minute); s != Unarmed {
		t.Fatalf("expected unarmed, got %s", s)
	}
	table.MayEmit(key, time.Minute)
	if s := table.State(key, time.Minute); s != Cooling {
		t.Fatalf("expected cooling, got %s", s)
	}
	clock.Advance(time.Minute)
	if s := table.State(key, time.Minute); s != Armed {
		t.Fatalf("expected armed, got %s", s)
	}
	table.MayEmit(key, time.Minute)
	if s := table.State(key, time.Minute); s != Cooling {
		t.Fatalf("armed key should return to cooling after emission, got %s", s)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	table := New(nil)
	long := Key{Group: "2605", Subject: "Y", Side: "LONG"}
	short := Key{Group: "2605", Subject: "Y", Side: "SHORT"}
	if !table.MayEmit(long, time.Hour) || !table.MayEmit(short, time.Hour) {
		t.Fatal("different directions must not share a cooldown")
	}
	if _, ok := table.LastEmitted(long); !ok {
		t.Fatal("emission should be recorded")
	}
}
