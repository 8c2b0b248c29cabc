package kb

import (
	"log"
	"net/http"

	"github.com/caredesk/caredesk/pkg/kb"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	Store *kb.Store
}

type CreateRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category *string  `json:"category"`
	Tags     []string `json:"tags"`
}

func (h *Handler) HandleList(c echo.Context) error {
	articles, err := h.Store.List(c.Request().Context())
	if err != nil {
		log.Printf("KB: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch articles"})
	}
	if articles == nil {
		articles = []kb.Article{}
	}
	return c.JSON(http.StatusOK, map[string]any{"articles": articles})
}

func (h *Handler) HandleCreate(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.Title == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title and content are required"})
	}

	article, err := h.Store.AddArticle(c.Request().Context(), req.Title, req.Content, req.Category, req.Tags)
	if err != nil {
		log.Printf("KB: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create article"})
	}

	return c.JSON(http.StatusCreated, article)
}

func (h *Handler) HandleSearch(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "q is required"})
	}

	articles, err := h.Store.Search(c.Request().Context(), query)
	if err != nil {
		log.Printf("KB: search failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Search failed"})
	}
	if articles == nil {
		articles = []kb.Article{}
	}
	return c.JSON(http.StatusOK, map[string]any{"articles": articles})
}
