package subscription

import "testing"

func TestPlanByID(t *testing.T) {
	for _, id := range []string{"starter", "professional", "enterprise"} {
		p, ok := PlanByID(id)
		if !ok {
			t.Errorf("plan %q not found", id)
			continue
		}
		if p.ID != id {
			t.Errorf("PlanByID(%q).ID = %q", id, p.ID)
		}
	}
	if _, ok := PlanByID("free"); ok {
		t.Error("unknown plan id resolved")
	}
}

func TestWithinLimit(t *testing.T) {
	tests := []struct {
		limit, used int
		want        bool
	}{
		{100, 99, true},
		{100, 100, false},
		{100, 150, false},
		{-1, 1000000, true},
		{1, 0, true},
	}
	for _, tt := range tests {
		if got := WithinLimit(tt.limit, tt.used); got != tt.want {
			t.Errorf("WithinLimit(%d, %d) = %v, want %v", tt.limit, tt.used, got, tt.want)
		}
	}
}

func TestGrowth(t *testing.T) {
	tests := []struct {
		current, previous int
		want              float64
	}{
		{150, 100, 50},
		{50, 100, -50},
		{100, 100, 0},
		{10, 0, 0}, // no baseline, no growth figure
		{0, 10, -100},
	}
	for _, tt := range tests {
		if got := Growth(tt.current, tt.previous); got != tt.want {
			t.Errorf("Growth(%d, %d) = %v, want %v", tt.current, tt.previous, got, tt.want)
		}
	}
}

func TestStarterLimitsMatchCatalogue(t *testing.T) {
	p, _ := PlanByID("starter")
	if p.Limits.ConversationsPerMonth != 100 || p.Limits.AgentSeats != 1 {
		t.Errorf("starter limits = %+v", p.Limits)
	}
	if p.Limits.HasAnalytics {
		t.Error("starter should not include analytics")
	}

	e, _ := PlanByID("enterprise")
	if e.Limits.ConversationsPerMonth != -1 || e.Limits.AgentSeats != -1 {
		t.Errorf("enterprise limits = %+v", e.Limits)
	}
}
