package admin

import "testing"

func TestResolutionRate(t *testing.T) {
	tests := []struct {
		total, escalated int
		want             float64
	}{
		{100, 25, 75},
		{10, 0, 100},
		{10, 10, 0},
		{0, 0, 0},
		{-1, 0, 0},
	}
	for _, tt := range tests {
		if got := ResolutionRate(tt.total, tt.escalated); got != tt.want {
			t.Errorf("ResolutionRate(%d, %d) = %v, want %v", tt.total, tt.escalated, got, tt.want)
		}
	}
}
