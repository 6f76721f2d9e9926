package series

import (
	"math"
	"testing"
)

func TestStoreNeverExceedsCapacity(t *testing.T) {
	s := NewStore(5)
	for i := 1; i <= 23; i++ {
		s.Append("k", float64(i))
	}
	if s.Len("k") != 5 {
		t.Fatalf("expected 5 retained samples, got %d", s.Len("k"))
	}
	got := s.Snapshot("k", 0)
	want := []float64{19, 20, 21, 22, 23}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FIFO 淘汰顺序错误: got %v want %v", got, want)
		}
	}
}

func TestStoreSnapshotTail(t *testing.T) {
	s := NewStore(10)
	for i := 1; i <= 4; i++ {
		s.Append("k", float64(i))
	}
	got := s.Snapshot("k", 2)
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("unexpected tail: %v", got)
	}
	if all := s.Snapshot("k", 100); len(all) != 4 || all[0] != 1 {
		t.Fatalf("oversized n should return everything: %v", all)
	}
}

func TestStoreDropsNonFinite(t *testing.T) {
	s := NewStore(10)
	if s.Append("k", math.NaN()) {
		t.Fatal("NaN 不应写入")
	}
	if s.Append("k", math.Inf(-1)) {
		t.Fatal("Inf 不应写入")
	}
	if !s.Append("k", 1.5) {
		t.Fatal("finite value should be appended")
	}
	if s.Len("k") != 1 {
		t.Fatalf("expected 1 sample, got %d", s.Len("k"))
	}
}

func TestStoreUnknownKey(t *testing.T) {
	s := NewStore(3)
	if got := s.Snapshot("missing", 5); got == nil || len(got) != 0 {
		t.Fatalf("unknown key should yield empty slice, got %v", got)
	}
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore(3)
	s.Append("k", 1)
	snap := s.Snapshot("k", 0)
	snap[0] = 99
	if s.Snapshot("k", 0)[0] != 1 {
		t.Fatal("snapshot must not alias the buffer")
	}
}

func TestKeysAreNamespaced(t *testing.T) {
	if PriceKey("2605", "Y") == SpreadKey("2605", "Y") {
		t.Fatal("price and spread keys must differ")
	}
}

func TestStoreDefaultCapacityAndKeys(t *testing.T) {
	s := NewStore(0)
	if s.Capacity() != DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultCapacity, s.Capacity())
	}
	s.Append(SpreadKey("2605", "Y-P"), 1)
	s.Append(PriceKey("2605", "Y"), 1)
	s.Append(PriceKey("2605", "P"), math.NaN())

	keys := s.Keys()
	if len(keys) != 2 || keys[0] != "2605:px:Y" || keys[1] != "2605:spread:Y-P" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
