package date

import (
	"testing"
	"time"
)

func TestFromTimeDropsTimeOfDay(t *testing.T) {
	late := time.Date(2026, time.January, 5, 23, 59, 58, 0, time.UTC)
	early := time.Date(2026, time.January, 5, 0, 0, 1, 0, time.UTC)
	if FromTime(late) != FromTime(early) {
		t.Errorf("FromTime(%v) = %v, want same day as %v", late, FromTime(late), FromTime(early))
	}
	if got := FromTime(late); got != New(2026, time.January, 5) {
		t.Errorf("FromTime = %v, want 2026-01-05", got)
	}
}

func TestCompare(t *testing.T) {
	a := New(2026, time.January, 5)
	b := New(2026, time.January, 6)
	if a.Compare(b) != -1 {
		t.Errorf("Compare(%v, %v) = %d, want -1", a, b, a.Compare(b))
	}
	if b.Compare(a) != 1 {
		t.Errorf("Compare(%v, %v) = %d, want 1", b, a, b.Compare(a))
	}
	if a.Compare(a) != 0 {
		t.Errorf("Compare(%v, %v) = %d, want 0", a, a, a.Compare(a))
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2026-01-05", New(2026, time.January, 5), true},
		{"2026-1-5", New(2026, time.January, 5), true},
		{"not-a-date", Date{}, false},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if (err == nil) != c.ok {
			t.Errorf("Parse(%q) error = %v, want ok=%v", c.in, err, c.ok)
			continue
		}
		if c.ok && got != c.want {
			t.Errorf("Parse(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNormalization(t *testing.T) {
	// Out-of-range day rolls over, like time.Date.
	if got := New(2026, time.January, 32); got != New(2026, time.February, 1) {
		t.Errorf("New(2026, Jan, 32) = %v, want 2026-02-01", got)
	}
	if got := New(2026, time.January, 31).Add(1); got != New(2026, time.February, 1) {
		t.Errorf("Add(1) = %v, want 2026-02-01", got)
	}
}
