package conversations

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/caredesk/caredesk/apps/web/backend/auth"
	"github.com/caredesk/caredesk/pkg/subscription"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	DBPool *pgxpool.Pool
	Usage  *subscription.Service
}

type Conversation struct {
	ID        string    `json:"id"`
	Title     *string   `json:"title"`
	Status    string    `json:"status"`
	Sentiment string    `json:"sentiment"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// HandleList returns the authenticated customer's conversations, newest first.
func (h *Handler) HandleList(c echo.Context) error {
	claims := auth.CurrentClaims(c)
	ctx := c.Request().Context()

	customerID, _, err := h.customerForUser(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Customer profile not found"})
	}

	rows, err := h.DBPool.Query(ctx, `
		SELECT id, title, status, sentiment, priority, created_at, updated_at
		FROM conversations
		WHERE customer_id = $1
		ORDER BY updated_at DESC
	`, customerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch conversations"})
	}
	defer rows.Close()

	conversations := []Conversation{}
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.Title, &conv.Status, &conv.Sentiment, &conv.Priority, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to scan conversation"})
		}
		conversations = append(conversations, conv)
	}

	return c.JSON(http.StatusOK, map[string]any{"conversations": conversations, "customerId": customerID})
}

// HandleCreate returns the customer's active conversation if one exists,
// otherwise starts a new one. A customer has at most one active conversation.
func (h *Handler) HandleCreate(c echo.Context) error {
	claims := auth.CurrentClaims(c)
	ctx := c.Request().Context()

	customerID, orgID, err := h.customerForUser(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Customer profile not found"})
	}

	var conv Conversation
	err = h.DBPool.QueryRow(ctx, `
		SELECT id, title, status, sentiment, priority, created_at, updated_at
		FROM conversations
		WHERE customer_id = $1 AND status = 'active'
		ORDER BY updated_at DESC
		LIMIT 1
	`, customerID).Scan(&conv.ID, &conv.Title, &conv.Status, &conv.Sentiment, &conv.Priority, &conv.CreatedAt, &conv.UpdatedAt)
	if err == nil {
		return c.JSON(http.StatusOK, map[string]any{"conversation": conv, "customerId": customerID, "created": false})
	}
	if err != pgx.ErrNoRows {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch conversation"})
	}

	if orgID != nil && h.Usage != nil {
		limits, err := h.Usage.CheckUsageLimits(ctx, *orgID)
		if err != nil {
			log.Printf("Conversations: limit check failed: %v", err)
		} else if !limits.CanCreateConversation {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Monthly conversation limit reached for your plan"})
		}
	}

	err = h.DBPool.QueryRow(ctx, `
		INSERT INTO conversations (id, customer_id, organization_id)
		VALUES ($1, $2, $3)
		RETURNING id, title, status, sentiment, priority, created_at, updated_at
	`, uuid.NewString(), customerID, orgID).Scan(&conv.ID, &conv.Title, &conv.Status, &conv.Sentiment, &conv.Priority, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create conversation"})
	}

	// Usage tracking is advisory; a failure never blocks the chat.
	if orgID != nil && h.Usage != nil {
		if err := h.Usage.TrackConversationUsage(ctx, *orgID, conv.ID); err != nil {
			log.Printf("Conversations: usage tracking failed: %v", err)
		}
	}

	return c.JSON(http.StatusCreated, map[string]any{"conversation": conv, "customerId": customerID, "created": true})
}

// HandleMessages returns a conversation's messages in creation order.
// Customers only see their own conversations; agents see any.
func (h *Handler) HandleMessages(c echo.Context) error {
	claims := auth.CurrentClaims(c)
	ctx := c.Request().Context()
	conversationID := c.Param("id")

	if claims.Role != "agent" && claims.Role != "admin" {
		var owner string
		err := h.DBPool.QueryRow(ctx, `
			SELECT cu.user_id FROM conversations co
			JOIN customers cu ON cu.id = co.customer_id
			WHERE co.id = $1
		`, conversationID).Scan(&owner)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Conversation not found"})
		}
		if owner != claims.UserID {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}

	rows, err := h.DBPool.Query(ctx, `
		SELECT id, role, content, metadata, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, conversationID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch messages"})
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Metadata, &m.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to scan message"})
		}
		messages = append(messages, m)
	}

	return c.JSON(http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) customerForUser(ctx context.Context, userID string) (string, *string, error) {
	var customerID string
	var orgID *string
	err := h.DBPool.QueryRow(ctx,
		"SELECT id, organization_id FROM customers WHERE user_id = $1", userID).
		Scan(&customerID, &orgID)
	return customerID, orgID, err
}
