package session

import (
	"testing"
	"time"
)

func TestDefaultSchedule(t *testing.T) {
	sched, err := NewSchedule("Asia/Shanghai", DefaultWindows)
	if err != nil {
		t.Fatalf("构建交易时段失败: %v", err)
	}
	loc, _ := time.LoadLocation("Asia/Shanghai")

	cases := []struct {
		hour, minute int
		open         bool
	}{
		{9, 0, true},
		{11, 30, true},
		{11, 31, false},
		{12, 0, false},
		{14, 15, true},
		{15, 1, false},
		{21, 5, true},
		{23, 59, true},
		{0, 0, true},
		{2, 30, true},
		{3, 0, false},
		{8, 59, false},
	}
	for _, tc := range cases {
		now := time.Date(2026, 3, 3, tc.hour, tc.minute, 0, 0, loc)
		if got := sched.IsOpen(now); got != tc.open {
			t.Fatalf("%02d:%02d expected open=%v, got %v", tc.hour, tc.minute, tc.open, got)
		}
	}
}

func TestScheduleConvertsTimezone(t *testing.T) {
	sched, err := NewSchedule("Asia/Shanghai", []string{"09:00-11:30"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 01:30 UTC is 09:30 in Shanghai.
	if !sched.IsOpen(time.Date(2026, 3, 3, 1, 30, 0, 0, time.UTC)) {
		t.Fatal("expected open after timezone conversion")
	}
}

func TestInvalidWindows(t *testing.T) {
	for _, raw := range []string{"0900-1130", "09:00", "25:00-26:00", "15:00-09:00"} {
		if err := ValidateWindows([]string{raw}); err == nil {
			t.Fatalf("window %q should be rejected", raw)
		}
	}
	if _, err := NewSchedule("", nil); err == nil {
		t.Fatal("empty window list should be rejected")
	}
}

func TestAlways(t *testing.T) {
	if !Always(true).IsOpen(time.Now()) || Always(false).IsOpen(time.Now()) {
		t.Fatal("Always should return its fixed value")
	}
}
