package shiftcal

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func TestDetectBoundaries(t *testing.T) {
	cal := New(time.UTC)
	cases := []struct {
		hour int
		want Shift
	}{
		{6, Night},
		{7, Morning},
		{14, Morning},
		{15, Evening},
		{22, Evening},
		{23, Night},
		{0, Night},
	}
	for _, tc := range cases {
		at := time.Date(2024, 3, 10, tc.hour, 30, 0, 0, time.UTC)
		if got := cal.Detect(at); got != tc.want {
			t.Fatalf("Detect(%02d:30) = %s, want %s", tc.hour, got, tc.want)
		}
	}
}

func TestDetectUsesCalendarZone(t *testing.T) {
	loc := mustLoc(t, "Asia/Tashkent") // UTC+5
	cal := New(loc)
	// 02:00 UTC = 07:00 Tashkent
	at := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	if got := cal.Detect(at); got != Morning {
		t.Fatalf("Detect = %s, want morning", got)
	}
}

func TestEnd(t *testing.T) {
	cal := New(time.UTC)
	in := time.Date(2024, 3, 10, 8, 12, 0, 0, time.UTC)
	if got, want := cal.End(in, Morning), time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("morning end = %v, want %v", got, want)
	}
	if got, want := cal.End(in, Evening), time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("evening end = %v, want %v", got, want)
	}
	night := time.Date(2024, 3, 31, 23, 5, 0, 0, time.UTC)
	if got, want := cal.End(night, Night), time.Date(2024, 4, 1, 7, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("night end = %v, want %v", got, want)
	}
	if got, want := cal.End(in, Shift("swing")), in.Add(8*time.Hour); !got.Equal(want) {
		t.Fatalf("fallback end = %v, want %v", got, want)
	}
}

func TestShiftStartingAt(t *testing.T) {
	cal := New(time.UTC)
	for hour, want := range map[int]Shift{7: Morning, 15: Evening, 23: Night} {
		got, ok := cal.ShiftStartingAt(time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC))
		if !ok || got != want {
			t.Fatalf("ShiftStartingAt(%d) = %s,%v want %s", hour, got, ok, want)
		}
	}
	if _, ok := cal.ShiftStartingAt(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)); ok {
		t.Fatalf("hour 8 must not start a shift")
	}
}

func TestDayBounds(t *testing.T) {
	loc := mustLoc(t, "Asia/Tashkent")
	cal := New(loc)
	from, to := cal.DayBounds(time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)) // 01:00 on the 11th locally
	if cal.Day(from) != "2024-03-11" {
		t.Fatalf("from day = %s, want 2024-03-11", cal.Day(from))
	}
	if to.Sub(from) != 24*time.Hour {
		t.Fatalf("bounds span %v, want 24h", to.Sub(from))
	}
}
