package customers

import (
	"net/http"
	"time"

	"github.com/caredesk/caredesk/apps/web/backend/auth"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	DBPool *pgxpool.Pool
}

type Profile struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Name        *string        `json:"name"`
	Phone       *string        `json:"phone"`
	Company     *string        `json:"company"`
	Preferences map[string]any `json:"preferences"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type UpdateRequest struct {
	Name        *string        `json:"name"`
	Phone       *string        `json:"phone"`
	Company     *string        `json:"company"`
	Preferences map[string]any `json:"preferences"`
}

func (h *Handler) HandleGetMe(c echo.Context) error {
	claims := auth.CurrentClaims(c)

	var p Profile
	err := h.DBPool.QueryRow(c.Request().Context(), `
		SELECT id, email, name, phone, company, preferences, created_at, updated_at
		FROM customers WHERE user_id = $1
	`, claims.UserID).Scan(&p.ID, &p.Email, &p.Name, &p.Phone, &p.Company, &p.Preferences, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Customer profile not found"})
	}

	return c.JSON(http.StatusOK, p)
}

// HandleUpdateMe patches the profile fields a customer can edit. Fields
// absent from the request are left untouched.
func (h *Handler) HandleUpdateMe(c echo.Context) error {
	claims := auth.CurrentClaims(c)

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	// A typed nil map would encode as JSON null instead of SQL NULL and
	// clobber stored preferences through the COALESCE.
	var prefs any
	if req.Preferences != nil {
		prefs = req.Preferences
	}

	var p Profile
	err := h.DBPool.QueryRow(c.Request().Context(), `
		UPDATE customers SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			company = COALESCE($4, company),
			preferences = COALESCE($5, preferences),
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING id, email, name, phone, company, preferences, created_at, updated_at
	`, claims.UserID, req.Name, req.Phone, req.Company, prefs).
		Scan(&p.ID, &p.Email, &p.Name, &p.Phone, &p.Company, &p.Preferences, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update profile"})
	}

	return c.JSON(http.StatusOK, p)
}
