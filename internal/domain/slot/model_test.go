package slot

import "testing"

func TestIsFull(t *testing.T) {
	cases := []struct {
		name     string
		booked   int
		capacity int
		want     bool
	}{
		{"empty", 0, 3, false},
		{"partial", 2, 3, false},
		{"at capacity", 3, 3, true},
		{"over capacity after shrink", 5, 3, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Slot{BookedCount: tc.booked, Capacity: tc.capacity}
			if got := s.IsFull(); got != tc.want {
				t.Errorf("IsFull() = %v, want %v", got, tc.want)
			}
		})
	}
}
