package tickets

import "time"

type StatRow struct {
	Status     string
	Priority   string
	ResolvedAt *time.Time
}

type Stats struct {
	Open          int `json:"open"`
	InProgress    int `json:"in_progress"`
	ResolvedToday int `json:"resolved_today"`
	Urgent        int `json:"urgent"`
}

// ComputeStats folds ticket rows into the dashboard counters. "Resolved
// today" counts tickets whose resolution stamp falls on now's calendar day.
func ComputeStats(rows []StatRow, now time.Time) Stats {
	var s Stats
	y, m, d := now.Date()
	for _, r := range rows {
		switch r.Status {
		case "open":
			s.Open++
		case "in_progress":
			s.InProgress++
		case "resolved":
			if r.ResolvedAt != nil {
				ry, rm, rd := r.ResolvedAt.In(now.Location()).Date()
				if ry == y && rm == m && rd == d {
					s.ResolvedToday++
				}
			}
		}
		if r.Priority == "urgent" {
			s.Urgent++
		}
	}
	return s
}
