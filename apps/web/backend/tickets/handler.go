// Package tickets is the agent-facing ticket surface: queue listing with
// filters, manual creation, and the status/priority/assignment mutations
// agents make while working a case.
package tickets

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	DBPool *pgxpool.Pool
}

type Customer struct {
	ID      string  `json:"id"`
	Name    *string `json:"name"`
	Email   string  `json:"email"`
	Company *string `json:"company"`
}

type Ticket struct {
	ID             string     `json:"id"`
	ConversationID *string    `json:"conversation_id"`
	CustomerID     string     `json:"customer_id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	Category       *string    `json:"category"`
	AssignedTo     *string    `json:"assigned_to"`
	Resolution     *string    `json:"resolution"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ResolvedAt     *time.Time `json:"resolved_at"`
	Customer       *Customer  `json:"customer,omitempty"`
}

type CreateRequest struct {
	CustomerID     string  `json:"customer_id"`
	ConversationID *string `json:"conversation_id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Priority       string  `json:"priority"`
	Category       *string `json:"category"`
}

type UpdateRequest struct {
	Status     *string `json:"status"`
	Priority   *string `json:"priority"`
	AssignedTo *string `json:"assigned_to"`
	Resolution *string `json:"resolution"`
}

var validStatuses = map[string]bool{"open": true, "in_progress": true, "resolved": true, "closed": true}
var validPriorities = map[string]bool{"low": true, "medium": true, "high": true, "urgent": true}

const ticketColumns = `
	t.id, t.conversation_id, t.customer_id, t.title, t.description, t.status,
	t.priority, t.category, t.assigned_to, t.resolution, t.created_at,
	t.updated_at, t.resolved_at,
	c.id, c.name, c.email, c.company`

func scanTicket(row pgx.Row) (*Ticket, error) {
	var t Ticket
	var cust Customer
	err := row.Scan(
		&t.ID, &t.ConversationID, &t.CustomerID, &t.Title, &t.Description, &t.Status,
		&t.Priority, &t.Category, &t.AssignedTo, &t.Resolution, &t.CreatedAt,
		&t.UpdatedAt, &t.ResolvedAt,
		&cust.ID, &cust.Name, &cust.Email, &cust.Company)
	if err != nil {
		return nil, err
	}
	t.Customer = &cust
	return &t, nil
}

// HandleList returns the ticket queue with the dashboard filters:
// ?filter=all|urgent|assigned|unassigned plus an optional status.
func (h *Handler) HandleList(c echo.Context) error {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		JOIN customers c ON c.id = t.customer_id
		WHERE 1=1`
	args := []any{}

	switch c.QueryParam("filter") {
	case "", "all":
	case "urgent":
		query += " AND t.priority = 'urgent'"
	case "assigned":
		query += " AND t.assigned_to IS NOT NULL"
	case "unassigned":
		query += " AND t.assigned_to IS NULL"
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown filter"})
	}

	if status := c.QueryParam("status"); status != "" {
		if !validStatuses[status] {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown status"})
		}
		args = append(args, status)
		query += fmt.Sprintf(" AND t.status = $%d", len(args))
	}

	if priority := c.QueryParam("priority"); priority != "" {
		if !validPriorities[priority] {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown priority"})
		}
		args = append(args, priority)
		query += fmt.Sprintf(" AND t.priority = $%d", len(args))
	}

	query += " ORDER BY t.created_at DESC"

	rows, err := h.DBPool.Query(c.Request().Context(), query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch tickets"})
	}
	defer rows.Close()

	tickets := []Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to scan ticket"})
		}
		tickets = append(tickets, *t)
	}

	return c.JSON(http.StatusOK, map[string]any{"tickets": tickets})
}

func (h *Handler) HandleGet(c echo.Context) error {
	row := h.DBPool.QueryRow(c.Request().Context(), `
		SELECT `+ticketColumns+`
		FROM tickets t
		JOIN customers c ON c.id = t.customer_id
		WHERE t.id = $1
	`, c.Param("id"))

	t, err := scanTicket(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch ticket"})
	}

	return c.JSON(http.StatusOK, t)
}

// HandleCreate is manual ticket creation by an agent. When a conversation
// is referenced, the ticket must belong to that conversation's customer.
func (h *Handler) HandleCreate(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.Title == "" || req.CustomerID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title and customer_id are required"})
	}
	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}
	if !validPriorities[priority] {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown priority"})
	}

	ctx := c.Request().Context()
	if req.ConversationID != nil {
		var owner string
		err := h.DBPool.QueryRow(ctx,
			"SELECT customer_id FROM conversations WHERE id = $1", *req.ConversationID).Scan(&owner)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Conversation not found"})
		}
		if owner != req.CustomerID {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Conversation belongs to a different customer"})
		}
	}

	var id string
	err := h.DBPool.QueryRow(ctx, `
		INSERT INTO tickets (conversation_id, customer_id, organization_id, title, description, priority, category)
		SELECT $1, $2, c.organization_id, $3, NULLIF($4, ''), $5, $6
		FROM customers c WHERE c.id = $2
		RETURNING id
	`, req.ConversationID, req.CustomerID, req.Title, req.Description, priority, req.Category).Scan(&id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create ticket"})
	}

	row := h.DBPool.QueryRow(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets t JOIN customers c ON c.id = t.customer_id
		WHERE t.id = $1
	`, id)
	t, err := scanTicket(row)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch created ticket"})
	}

	return c.JSON(http.StatusCreated, t)
}

// HandleUpdate applies agent edits. Transitioning into resolved stamps
// resolved_at; leaving it clears the stamp.
func (h *Handler) HandleUpdate(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.Status != nil && !validStatuses[*req.Status] {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown status"})
	}
	if req.Priority != nil && !validPriorities[*req.Priority] {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown priority"})
	}

	result, err := h.DBPool.Exec(c.Request().Context(), `
		UPDATE tickets SET
			status = COALESCE($2, status),
			priority = COALESCE($3, priority),
			assigned_to = COALESCE($4, assigned_to),
			resolution = COALESCE($5, resolution),
			resolved_at = CASE
				WHEN COALESCE($2, status) = 'resolved' AND status <> 'resolved' THEN NOW()
				WHEN COALESCE($2, status) <> 'resolved' THEN NULL
				ELSE resolved_at
			END,
			updated_at = NOW()
		WHERE id = $1
	`, c.Param("id"), req.Status, req.Priority, req.AssignedTo, req.Resolution)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update ticket"})
	}
	if result.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Ticket not found"})
	}

	row := h.DBPool.QueryRow(c.Request().Context(), `
		SELECT `+ticketColumns+`
		FROM tickets t JOIN customers c ON c.id = t.customer_id
		WHERE t.id = $1
	`, c.Param("id"))
	t, err := scanTicket(row)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch updated ticket"})
	}

	return c.JSON(http.StatusOK, t)
}

// HandleStats powers the agent dashboard counters.
func (h *Handler) HandleStats(c echo.Context) error {
	rows, err := h.DBPool.Query(c.Request().Context(),
		"SELECT status, priority, resolved_at FROM tickets")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch tickets"})
	}
	defer rows.Close()

	var statRows []StatRow
	for rows.Next() {
		var r StatRow
		if err := rows.Scan(&r.Status, &r.Priority, &r.ResolvedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to scan ticket"})
		}
		statRows = append(statRows, r)
	}

	return c.JSON(http.StatusOK, ComputeStats(statRows, time.Now()))
}
