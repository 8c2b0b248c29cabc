package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sashabaranov/go-openai"

	"github.com/caredesk/caredesk/apps/web/backend/admin"
	"github.com/caredesk/caredesk/apps/web/backend/auth"
	"github.com/caredesk/caredesk/apps/web/backend/chat"
	"github.com/caredesk/caredesk/apps/web/backend/conversations"
	"github.com/caredesk/caredesk/apps/web/backend/customers"
	kbhandler "github.com/caredesk/caredesk/apps/web/backend/kb"
	"github.com/caredesk/caredesk/apps/web/backend/tickets"
	"github.com/caredesk/caredesk/pkg/config"
	"github.com/caredesk/caredesk/pkg/db"
	"github.com/caredesk/caredesk/pkg/escalation"
	"github.com/caredesk/caredesk/pkg/kb"
	"github.com/caredesk/caredesk/pkg/llm"
	"github.com/caredesk/caredesk/pkg/llm/providers"
	"github.com/caredesk/caredesk/pkg/refresh"
	"github.com/caredesk/caredesk/pkg/subscription"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Init(ctx, cfg.DatabaseURL); err != nil {
		log.Fatalf("Database: %v", err)
	}
	defer db.Close()
	pool := db.GetPool()

	provider, err := providers.NewProvider(llm.ProviderConfig{
		Type:   cfg.ProviderType,
		APIKey: cfg.APIKey(),
		Model:  cfg.ChatModel,
	})
	if err != nil {
		log.Fatalf("LLM provider: %v", err)
	}

	pipeline := escalation.NewPipeline(provider)
	pipeline.ChatModel = cfg.ChatModel
	pipeline.ClassifierModel = cfg.ClassifierModel
	pipeline.CallTimeout = cfg.LLMCallTimeout

	usage := subscription.NewService(pool)

	authHandler := &auth.Handler{DBPool: pool, JWTSecret: []byte(cfg.JWTSecret)}
	chatHandler := &chat.Handler{DBPool: pool, Pipeline: pipeline}
	convHandler := &conversations.Handler{DBPool: pool, Usage: usage}
	customerHandler := &customers.Handler{DBPool: pool}
	ticketHandler := &tickets.Handler{DBPool: pool}
	adminHandler := &admin.Handler{DBPool: pool, Usage: usage}

	// Knowledge base search embeds with OpenAI regardless of the chat
	// provider; skip the routes when no key is configured.
	var kbHandler *kbhandler.Handler
	if cfg.OpenAIAPIKey != "" {
		kbHandler = &kbhandler.Handler{Store: kb.NewStore(pool, openai.NewClient(cfg.OpenAIAPIKey))}
	}

	metricsRefresher := refresh.New("admin-metrics", cfg.MetricsRefreshInterval, adminHandler.Reload)
	if err := metricsRefresher.Start(); err != nil {
		log.Printf("Metrics refresher: initial load failed: %v", err)
	}
	defer metricsRefresher.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.POST("/api/signup", authHandler.HandleSignup)
	e.POST("/api/login", authHandler.HandleLogin)
	e.POST("/api/logout", authHandler.HandleLogout)

	api := e.Group("/api", authHandler.AuthMiddleware)
	api.GET("/me", authHandler.HandleGetMe)

	api.POST("/chat", chatHandler.HandleChat)

	api.GET("/conversations", convHandler.HandleList)
	api.POST("/conversations", convHandler.HandleCreate)
	api.GET("/conversations/:id/messages", convHandler.HandleMessages)

	api.GET("/customers/me", customerHandler.HandleGetMe)
	api.PUT("/customers/me", customerHandler.HandleUpdateMe)

	agentOnly := api.Group("", auth.RequireRole("agent"))
	agentOnly.GET("/tickets", ticketHandler.HandleList)
	agentOnly.GET("/tickets/stats", ticketHandler.HandleStats)
	agentOnly.GET("/tickets/:id", ticketHandler.HandleGet)
	agentOnly.POST("/tickets", ticketHandler.HandleCreate)
	agentOnly.PUT("/tickets/:id", ticketHandler.HandleUpdate)

	if kbHandler != nil {
		agentOnly.GET("/kb", kbHandler.HandleList)
		agentOnly.GET("/kb/search", kbHandler.HandleSearch)
		agentOnly.POST("/kb", kbHandler.HandleCreate, auth.RequireRole("admin"))
	}

	adminOnly := api.Group("/admin", auth.RequireRole("admin"))
	adminOnly.GET("/metrics", adminHandler.HandleMetrics)
	adminOnly.GET("/activity", adminHandler.HandleActivity)
	adminOnly.GET("/usage/:orgID", adminHandler.HandleUsage)

	ws := e.Group("/ws", authHandler.AuthMiddleware)
	ws.GET("/chat", chatHandler.HandleWebSocket)

	go func() {
		log.Printf("Server: listening on %s", cfg.Addr)
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Server: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server: shutdown: %v", err)
	}
}
