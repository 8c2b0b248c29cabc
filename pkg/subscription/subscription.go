// Package subscription tracks plan limits and usage per organization.
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    int      `json:"price"`
	Features []string `json:"features"`
	Limits   Limits   `json:"limits"`
}

type Limits struct {
	ConversationsPerMonth int  `json:"conversations_per_month"` // -1 means unlimited
	AgentSeats            int  `json:"agent_seats"`             // -1 means unlimited
	HasAnalytics          bool `json:"has_analytics"`
	HasAPIAccess          bool `json:"has_api_access"`
	HasCustomTraining     bool `json:"has_custom_training"`
}

var Plans = []Plan{
	{
		ID:    "starter",
		Name:  "Starter",
		Price: 29,
		Features: []string{
			"100 AI conversations/month",
			"1 agent seat",
			"Basic ticket management",
			"Email support",
		},
		Limits: Limits{ConversationsPerMonth: 100, AgentSeats: 1},
	},
	{
		ID:    "professional",
		Name:  "Professional",
		Price: 99,
		Features: []string{
			"1,000 AI conversations/month",
			"5 agent seats",
			"Advanced analytics",
			"Multi-channel support",
			"Response templates",
		},
		Limits: Limits{ConversationsPerMonth: 1000, AgentSeats: 5, HasAnalytics: true},
	},
	{
		ID:    "enterprise",
		Name:  "Enterprise",
		Price: 299,
		Features: []string{
			"Unlimited AI conversations",
			"Unlimited agent seats",
			"Custom AI training",
			"API access",
			"White-label options",
			"Priority support",
		},
		Limits: Limits{ConversationsPerMonth: -1, AgentSeats: -1, HasAnalytics: true, HasAPIAccess: true, HasCustomTraining: true},
	},
}

func PlanByID(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

type Usage struct {
	ConversationsThisMonth int `json:"conversations_this_month"`
	ActiveAgents           int `json:"active_agents"`
}

type LimitCheck struct {
	CanCreateConversation bool  `json:"canCreateConversation"`
	CanAddAgent           bool  `json:"canAddAgent"`
	Usage                 Usage `json:"usage"`
	Plan                  Plan  `json:"plan"`
}

type MonthStats struct {
	Conversations  int `json:"conversations"`
	Messages       int `json:"messages"`
	TicketsCreated int `json:"tickets_created"`
}

type Trend struct {
	ConversationsGrowth float64 `json:"conversations_growth"`
	TicketsGrowth       float64 `json:"tickets_growth"`
}

type Analytics struct {
	CurrentMonth MonthStats `json:"current_month"`
	Trend        Trend      `json:"trend"`
}

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// CheckUsageLimits compares this month's usage against the organization's
// plan limits.
func (s *Service) CheckUsageLimits(ctx context.Context, orgID string) (*LimitCheck, error) {
	var planID, status string
	err := s.db.QueryRow(ctx,
		"SELECT subscription_plan, subscription_status FROM organizations WHERE id = $1", orgID).
		Scan(&planID, &status)
	if err != nil {
		return nil, fmt.Errorf("loading organization: %w", err)
	}
	if status != "active" {
		return nil, fmt.Errorf("no active subscription found")
	}
	plan, ok := PlanByID(planID)
	if !ok {
		return nil, fmt.Errorf("invalid subscription plan %q", planID)
	}

	startOfMonth := monthStart(time.Now())

	var usage Usage
	err = s.db.QueryRow(ctx, `
		SELECT count(*) FROM conversations
		WHERE organization_id = $1 AND created_at >= $2
	`, orgID, startOfMonth).Scan(&usage.ConversationsThisMonth)
	if err != nil {
		return nil, fmt.Errorf("counting conversations: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT count(*) FROM organization_members
		WHERE organization_id = $1 AND role = 'agent' AND status = 'active'
	`, orgID).Scan(&usage.ActiveAgents)
	if err != nil {
		return nil, fmt.Errorf("counting agents: %w", err)
	}

	return &LimitCheck{
		CanCreateConversation: WithinLimit(plan.Limits.ConversationsPerMonth, usage.ConversationsThisMonth),
		CanAddAgent:           WithinLimit(plan.Limits.AgentSeats, usage.ActiveAgents),
		Usage:                 usage,
		Plan:                  plan,
	}, nil
}

// TrackConversationUsage records a billable conversation event.
func (s *Service) TrackConversationUsage(ctx context.Context, orgID, conversationID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO usage_tracking (organization_id, conversation_id, event_type)
		VALUES ($1, $2, 'conversation_created')
	`, orgID, conversationID)
	if err != nil {
		return fmt.Errorf("tracking usage: %w", err)
	}
	return nil
}

// GetUsageAnalytics returns the current month's volume and its growth
// against the previous month.
func (s *Service) GetUsageAnalytics(ctx context.Context, orgID string) (*Analytics, error) {
	now := time.Now()
	startOfMonth := monthStart(now)
	startOfLastMonth := startOfMonth.AddDate(0, -1, 0)

	var a Analytics
	err := s.db.QueryRow(ctx, `
		SELECT count(*) FROM conversations
		WHERE organization_id = $1 AND created_at >= $2
	`, orgID, startOfMonth).Scan(&a.CurrentMonth.Conversations)
	if err != nil {
		return nil, fmt.Errorf("counting conversations: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT count(*) FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.organization_id = $1 AND m.created_at >= $2
	`, orgID, startOfMonth).Scan(&a.CurrentMonth.Messages)
	if err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT count(*) FROM tickets
		WHERE organization_id = $1 AND created_at >= $2
	`, orgID, startOfMonth).Scan(&a.CurrentMonth.TicketsCreated)
	if err != nil {
		return nil, fmt.Errorf("counting tickets: %w", err)
	}

	var lastMonthConversations, lastMonthTickets int
	err = s.db.QueryRow(ctx, `
		SELECT count(*) FROM conversations
		WHERE organization_id = $1 AND created_at >= $2 AND created_at < $3
	`, orgID, startOfLastMonth, startOfMonth).Scan(&lastMonthConversations)
	if err != nil {
		return nil, fmt.Errorf("counting last month conversations: %w", err)
	}
	err = s.db.QueryRow(ctx, `
		SELECT count(*) FROM tickets
		WHERE organization_id = $1 AND created_at >= $2 AND created_at < $3
	`, orgID, startOfLastMonth, startOfMonth).Scan(&lastMonthTickets)
	if err != nil {
		return nil, fmt.Errorf("counting last month tickets: %w", err)
	}

	a.Trend.ConversationsGrowth = Growth(a.CurrentMonth.Conversations, lastMonthConversations)
	a.Trend.TicketsGrowth = Growth(a.CurrentMonth.TicketsCreated, lastMonthTickets)
	return &a, nil
}

// WithinLimit reports whether usage fits the limit; -1 is unlimited.
func WithinLimit(limit, used int) bool {
	return limit == -1 || used < limit
}

// Growth is the month-over-month percentage change; a zero baseline reads
// as zero growth rather than a division fault.
func Growth(current, previous int) float64 {
	if previous <= 0 {
		return 0
	}
	return (float64(current) - float64(previous)) / float64(previous) * 100
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
