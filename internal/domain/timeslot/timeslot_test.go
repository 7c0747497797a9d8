package timeslot

import (
	"errors"
	"testing"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"23:59", 1439, false},
		{"9:30", 570, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"-1:00", 0, true},
		{"12", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
		{"12:00:00", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseClock(%q): expected error, got %d", tc.in, got)
			}
			if !errors.Is(err, ErrInvalidTimeFormat) {
				t.Fatalf("ParseClock(%q): expected ErrInvalidTimeFormat, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseClock(%q): unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseClock(%q): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestParseWindowRequiresPositiveDuration(t *testing.T) {
	if _, err := ParseWindow("09:00", "09:00"); err == nil {
		t.Fatal("expected error for zero-length window")
	}
	if _, err := ParseWindow("12:00", "09:00"); err == nil {
		t.Fatal("expected error for reversed window")
	}
	w, err := ParseWindow("09:00", "12:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Start != 540 || w.End != 750 {
		t.Fatalf("expected window 540-750, got %d-%d", w.Start, w.End)
	}
}

func TestWindowOverlaps(t *testing.T) {
	morning := Window{Start: 540, End: 720}   // 09:00-12:00
	afternoon := Window{Start: 720, End: 900} // 12:00-15:00

	if morning.Overlaps(afternoon) {
		t.Fatal("touching windows must not overlap")
	}
	if afternoon.Overlaps(morning) {
		t.Fatal("touching windows must not overlap (reversed)")
	}

	late := Window{Start: 660, End: 780} // 11:00-13:00
	if !morning.Overlaps(late) {
		t.Fatal("expected overlap for intersecting windows")
	}
	if !late.Overlaps(afternoon) {
		t.Fatal("expected overlap for intersecting windows (reversed)")
	}
}

func TestWindowHours(t *testing.T) {
	w := Window{Start: 540, End: 720}
	if w.Hours() != 3 {
		t.Fatalf("expected 3 hours, got %v", w.Hours())
	}
	w = Window{Start: 540, End: 630} // 1.5h
	if w.Hours() != 1.5 {
		t.Fatalf("expected 1.5 hours, got %v", w.Hours())
	}
	w = Window{Start: 0, End: 50} // 0.8333.. -> 0.83
	if w.Hours() != 0.83 {
		t.Fatalf("expected 0.83 hours, got %v", w.Hours())
	}
}
