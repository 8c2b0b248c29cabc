package tickets

import (
	"testing"
	"time"
)

func TestComputeStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	today := now.Add(-2 * time.Hour)
	yesterday := now.Add(-26 * time.Hour)

	rows := []StatRow{
		{Status: "open", Priority: "urgent"},
		{Status: "open", Priority: "low"},
		{Status: "in_progress", Priority: "medium"},
		{Status: "resolved", Priority: "high", ResolvedAt: &today},
		{Status: "resolved", Priority: "urgent", ResolvedAt: &yesterday},
		{Status: "resolved", Priority: "low"}, // no stamp, never counted as today
		{Status: "closed", Priority: "urgent"},
	}

	got := ComputeStats(rows, now)
	want := Stats{Open: 2, InProgress: 1, ResolvedToday: 1, Urgent: 3}
	if got != want {
		t.Errorf("ComputeStats = %+v, want %+v", got, want)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	got := ComputeStats(nil, time.Now())
	if got != (Stats{}) {
		t.Errorf("ComputeStats(nil) = %+v, want zero", got)
	}
}

func TestComputeStats_DayBoundary(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 30, 0, 0, time.UTC)
	justBeforeMidnight := time.Date(2025, 6, 14, 23, 59, 0, 0, time.UTC)
	justAfterMidnight := time.Date(2025, 6, 15, 0, 1, 0, 0, time.UTC)

	rows := []StatRow{
		{Status: "resolved", Priority: "low", ResolvedAt: &justBeforeMidnight},
		{Status: "resolved", Priority: "low", ResolvedAt: &justAfterMidnight},
	}

	got := ComputeStats(rows, now)
	if got.ResolvedToday != 1 {
		t.Errorf("ResolvedToday = %d, want 1", got.ResolvedToday)
	}
}
