package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Metrics struct {
	GeneratedAt time.Time `json:"generated_at"`

	TotalCustomers        int `json:"total_customers"`
	NewCustomersThisMonth int `json:"new_customers_this_month"`
	ActiveCustomersToday  int `json:"active_customers_today"`

	TotalConversations int `json:"total_conversations"`
	ConversationsToday int `json:"conversations_today"`

	TotalTickets         int `json:"total_tickets"`
	OpenTickets          int `json:"open_tickets"`
	ResolvedTicketsToday int `json:"resolved_tickets_today"`

	// Share of conversations the assistant handled without a ticket.
	AIResolutionRate float64 `json:"ai_resolution_rate"`
}

// ResolutionRate is the percentage of conversations that never escalated.
func ResolutionRate(totalConversations, escalatedConversations int) float64 {
	if totalConversations <= 0 {
		return 0
	}
	resolved := totalConversations - escalatedConversations
	return float64(resolved) / float64(totalConversations) * 100
}

func loadMetrics(ctx context.Context, db *pgxpool.Pool) (*Metrics, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	m := &Metrics{GeneratedAt: now}

	counts := []struct {
		dest *int
		sql  string
		args []any
	}{
		{&m.TotalCustomers, "SELECT count(*) FROM customers", nil},
		{&m.NewCustomersThisMonth, "SELECT count(*) FROM customers WHERE created_at >= $1", []any{startOfMonth}},
		{&m.ActiveCustomersToday, "SELECT count(DISTINCT customer_id) FROM conversations WHERE updated_at >= $1", []any{startOfDay}},
		{&m.TotalConversations, "SELECT count(*) FROM conversations", nil},
		{&m.ConversationsToday, "SELECT count(*) FROM conversations WHERE created_at >= $1", []any{startOfDay}},
		{&m.TotalTickets, "SELECT count(*) FROM tickets", nil},
		{&m.OpenTickets, "SELECT count(*) FROM tickets WHERE status = 'open'", nil},
		{&m.ResolvedTicketsToday, "SELECT count(*) FROM tickets WHERE resolved_at >= $1", []any{startOfDay}},
	}
	for _, c := range counts {
		if err := db.QueryRow(ctx, c.sql, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("admin metrics query: %w", err)
		}
	}

	var escalated int
	err := db.QueryRow(ctx,
		"SELECT count(DISTINCT conversation_id) FROM tickets WHERE conversation_id IS NOT NULL").
		Scan(&escalated)
	if err != nil {
		return nil, fmt.Errorf("admin metrics query: %w", err)
	}
	m.AIResolutionRate = ResolutionRate(m.TotalConversations, escalated)

	return m, nil
}
