// Package admin serves the analytics dashboard: aggregate metrics,
// recent activity, and subscription usage.
package admin

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/caredesk/caredesk/pkg/subscription"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	DBPool *pgxpool.Pool
	Usage  *subscription.Service

	snapshot atomic.Pointer[Metrics]
}

// Reload recomputes the metrics snapshot. The refresh scheduler calls this
// on its interval; requests read the latest snapshot without touching the
// database.
func (h *Handler) Reload(ctx context.Context) error {
	m, err := loadMetrics(ctx, h.DBPool)
	if err != nil {
		return err
	}
	h.snapshot.Store(m)
	return nil
}

func (h *Handler) HandleMetrics(c echo.Context) error {
	m := h.snapshot.Load()
	if m == nil {
		// Snapshot not warmed yet (refresher disabled or still starting).
		fresh, err := loadMetrics(c.Request().Context(), h.DBPool)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load metrics"})
		}
		m = fresh
	}
	return c.JSON(http.StatusOK, m)
}

type Activity struct {
	Type      string    `json:"type"` // "message" or "ticket"
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleActivity returns the newest messages and tickets interleaved, most
// recent first.
func (h *Handler) HandleActivity(c echo.Context) error {
	rows, err := h.DBPool.Query(c.Request().Context(), `
		SELECT type, detail, created_at FROM (
			SELECT 'message' AS type, left(content, 120) AS detail, created_at FROM messages
			UNION ALL
			SELECT 'ticket' AS type, title AS detail, created_at FROM tickets
		) activity
		ORDER BY created_at DESC
		LIMIT 20
	`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load activity"})
	}
	defer rows.Close()

	activities := []Activity{}
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.Type, &a.Detail, &a.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to scan activity"})
		}
		activities = append(activities, a)
	}

	return c.JSON(http.StatusOK, map[string]any{"activities": activities})
}

// HandleUsage exposes an organization's plan, limits, and analytics.
func (h *Handler) HandleUsage(c echo.Context) error {
	orgID := c.Param("orgID")
	ctx := c.Request().Context()

	limits, err := h.Usage.CheckUsageLimits(ctx, orgID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Organization not found or inactive"})
	}

	analytics, err := h.Usage.GetUsageAnalytics(ctx, orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load usage analytics"})
	}

	return c.JSON(http.StatusOK, map[string]any{"limits": limits, "analytics": analytics})
}
