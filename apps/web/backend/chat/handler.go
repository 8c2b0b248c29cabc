// Package chat serves the customer-facing chat endpoint. Each submitted
// message runs the escalation pipeline, persists the turn, and optionally
// opens a support ticket.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/caredesk/caredesk/pkg/escalation"
	"github.com/caredesk/caredesk/pkg/llm"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const (
	historyLimit     = 10
	priorTicketLimit = 5
)

var (
	errCustomerNotFound     = errors.New("customer not found")
	errConversationNotFound = errors.New("conversation not found")
)

type Handler struct {
	DBPool   *pgxpool.Pool
	Pipeline *escalation.Pipeline
}

type Request struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
	CustomerID     string `json:"customerId"`
}

type ConversationUpdate struct {
	UpdatedAt time.Time `json:"updated_at"`
	Sentiment string    `json:"sentiment,omitempty"`
	Status    string    `json:"status,omitempty"`
}

type Ticket struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	CustomerID     string    `json:"customer_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	Category       string    `json:"category"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Metadata struct {
	Sentiment          string `json:"sentiment"`
	ShouldCreateTicket bool   `json:"shouldCreateTicket"`
	Model              string `json:"model"`
	Tokens             int    `json:"tokens,omitempty"`
}

type Response struct {
	Response           string             `json:"response"`
	ConversationUpdate ConversationUpdate `json:"conversationUpdate"`
	TicketCreated      *Ticket            `json:"ticketCreated"`
	Metadata           Metadata           `json:"metadata"`
}

func (h *Handler) HandleChat(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.Message == "" || req.ConversationID == "" || req.CustomerID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
	}

	resp, err := h.processTurn(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, errCustomerNotFound), errors.Is(err, errConversationNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			log.Printf("Chat: request failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// processTurn runs one chat turn end to end: load context, run the
// pipeline, persist everything the turn produced. The pipeline only
// computes values; this is the caller that owns the writes.
func (h *Handler) processTurn(ctx context.Context, req Request) (*Response, error) {
	in, err := h.loadContext(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := h.Pipeline.Run(ctx, *in)
	if err != nil {
		return nil, err
	}

	return h.persistTurn(ctx, req, out)
}

func (h *Handler) loadContext(ctx context.Context, req Request) (*escalation.Input, error) {
	var (
		name, company *string
		email         string
		prefs         map[string]any
	)
	err := h.DBPool.QueryRow(ctx,
		"SELECT email, name, company, preferences FROM customers WHERE id = $1",
		req.CustomerID).Scan(&email, &name, &company, &prefs)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errCustomerNotFound
		}
		return nil, fmt.Errorf("loading customer: %w", err)
	}

	var convStatus string
	err = h.DBPool.QueryRow(ctx,
		"SELECT status FROM conversations WHERE id = $1 AND customer_id = $2",
		req.ConversationID, req.CustomerID).Scan(&convStatus)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errConversationNotFound
		}
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	customer := escalation.CustomerProfile{Email: email, Preferences: prefs}
	if name != nil {
		customer.Name = *name
	}
	if company != nil {
		customer.Company = *company
	}

	history, err := h.recentMessages(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	tickets, err := h.recentTickets(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	return &escalation.Input{
		Message:         req.Message,
		History:         history,
		Customer:        customer,
		PreviousTickets: tickets,
	}, nil
}

// recentMessages returns the last N messages oldest-first, ready to feed
// the reply prompt.
func (h *Handler) recentMessages(ctx context.Context, conversationID string) ([]llm.Message, error) {
	rows, err := h.DBPool.Query(ctx, `
		SELECT role, content FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, conversationID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	defer rows.Close()

	var history []llm.Message
	for rows.Next() {
		var m llm.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}

	// Query returned newest first; the prompt wants chronological order.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

func (h *Handler) recentTickets(ctx context.Context, customerID string) ([]escalation.TicketSummary, error) {
	rows, err := h.DBPool.Query(ctx, `
		SELECT title, COALESCE(description, ''), status, COALESCE(category, ''), COALESCE(resolution, '')
		FROM tickets
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, customerID, priorTicketLimit)
	if err != nil {
		return nil, fmt.Errorf("loading tickets: %w", err)
	}
	defer rows.Close()

	var tickets []escalation.TicketSummary
	for rows.Next() {
		var t escalation.TicketSummary
		if err := rows.Scan(&t.Title, &t.Description, &t.Status, &t.Category, &t.Resolution); err != nil {
			return nil, fmt.Errorf("scanning ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading tickets: %w", err)
	}
	return tickets, nil
}

// persistTurn writes both messages, the conversation patch, and the ticket
// (when escalating) in one transaction, so the conversation flips to
// escalated exactly when a ticket row exists.
func (h *Handler) persistTurn(ctx context.Context, req Request, out *escalation.Outcome) (*Response, error) {
	tx, err := h.DBPool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"INSERT INTO messages (conversation_id, role, content) VALUES ($1, 'user', $2)",
		req.ConversationID, req.Message)
	if err != nil {
		return nil, fmt.Errorf("storing user message: %w", err)
	}

	assistantMeta := map[string]any{"model": out.Model, "tokens": out.Tokens}
	_, err = tx.Exec(ctx,
		"INSERT INTO messages (conversation_id, role, content, metadata) VALUES ($1, 'assistant', $2, $3)",
		req.ConversationID, out.Response, assistantMeta)
	if err != nil {
		return nil, fmt.Errorf("storing assistant message: %w", err)
	}

	resp := &Response{
		Response: out.Response,
		Metadata: Metadata{
			Sentiment:          out.Sentiment,
			ShouldCreateTicket: out.ShouldCreateTicket,
			Model:              out.Model,
			Tokens:             out.Tokens,
		},
	}

	if out.ShouldCreateTicket {
		ticket := &Ticket{
			ConversationID: req.ConversationID,
			CustomerID:     req.CustomerID,
			Title:          out.TicketTitle,
			Description:    req.Message,
			Status:         "open",
			Priority:       "medium",
			Category:       out.TicketCategory,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO tickets (conversation_id, customer_id, organization_id, title, description, status, priority, category)
			SELECT $1, $2, c.organization_id, $3, $4, 'open', 'medium', $5
			FROM customers c WHERE c.id = $2
			RETURNING id, created_at, updated_at
		`, req.ConversationID, req.CustomerID, out.TicketTitle, req.Message, out.TicketCategory).
			Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("creating ticket: %w", err)
		}
		resp.TicketCreated = ticket

		err = tx.QueryRow(ctx,
			"UPDATE conversations SET updated_at = NOW(), sentiment = $2, status = 'escalated' WHERE id = $1 RETURNING updated_at",
			req.ConversationID, out.Sentiment).Scan(&resp.ConversationUpdate.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("updating conversation: %w", err)
		}
		resp.ConversationUpdate.Status = "escalated"
	} else {
		err = tx.QueryRow(ctx,
			"UPDATE conversations SET updated_at = NOW(), sentiment = $2 WHERE id = $1 RETURNING updated_at",
			req.ConversationID, out.Sentiment).Scan(&resp.ConversationUpdate.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("updating conversation: %w", err)
		}
	}
	resp.ConversationUpdate.Sentiment = out.Sentiment

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing turn: %w", err)
	}
	return resp, nil
}
