package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/robbykap/github-dashboard/common/id"
	"github.com/robbykap/github-dashboard/common/llm"
	"github.com/robbykap/github-dashboard/common/logger"
	"github.com/robbykap/github-dashboard/common/otel"
	"github.com/robbykap/github-dashboard/core/config"
	"github.com/robbykap/github-dashboard/internal/drafting"
	"github.com/robbykap/github-dashboard/internal/http/middleware"
	httprouter "github.com/robbykap/github-dashboard/internal/http/router"
	"github.com/robbykap/github-dashboard/internal/service/summarizer"
	"github.com/robbykap/github-dashboard/internal/service/tracker"
	"github.com/robbykap/github-dashboard/internal/session"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "dashboard starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	chatClient, err := llm.NewAgentClient(llm.Config{
		Provider: cfg.ChatLLM.Provider,
		APIKey:   cfg.ChatLLM.APIKey,
		BaseURL:  cfg.ChatLLM.BaseURL,
		Model:    cfg.ChatLLM.Model,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create chat llm client", "error", err)
		os.Exit(1)
	}

	auxAgent := chatClient
	var auxClient llm.Client
	if cfg.AuxLLM.Enabled() {
		auxAgent, err = llm.NewAgentClient(llm.Config{
			Provider: cfg.AuxLLM.Provider,
			APIKey:   cfg.AuxLLM.APIKey,
			BaseURL:  cfg.AuxLLM.BaseURL,
			Model:    cfg.AuxLLM.Model,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create aux llm client", "error", err)
			os.Exit(1)
		}
		auxClient, err = llm.New(llm.Config{
			Provider: cfg.AuxLLM.Provider,
			APIKey:   cfg.AuxLLM.APIKey,
			BaseURL:  cfg.AuxLLM.BaseURL,
			Model:    cfg.AuxLLM.Model,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create structured llm client", "error", err)
			os.Exit(1)
		}
	}

	issueTracker, err := newTracker(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create issue tracker", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "issue tracker ready", "provider", cfg.Tracker.Provider)

	// Summaries work without a cache; a missing Redis just costs repeat calls
	var redisClient *redis.Client
	if cfg.Cache.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.WarnContext(ctx, "redis unavailable, summary cache disabled", "error", err)
			redisClient = nil
		} else {
			slog.InfoContext(ctx, "redis connected")
		}
	}

	registry := session.NewRegistry(drafting.Deps{
		Classifier: drafting.NewReadinessClassifier(auxAgent),
		Exchange:   drafting.NewExchange(chatClient, cfg.ChatLLM.MaxTokens),
		Extractor:  drafting.NewFallbackExtractor(auxAgent),
		Submitter:  issueTracker,
	}, cfg.Session.IdleTimeout)
	defer registry.Close()

	summaries := summarizer.New(auxClient, redisClient, cfg.Cache.TTL)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, registry, summaries, issueTracker)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func newTracker(ctx context.Context, cfg config.Config) (tracker.IssueTracker, error) {
	switch cfg.Tracker.Provider {
	case "gitlab":
		return tracker.NewGitLabTracker(cfg.GitLab.Token, cfg.GitLab.BaseURL)
	default:
		return tracker.NewGitHubTracker(ctx, cfg.GitHub.Token), nil
	}
}

func setupRouter(cfg config.Config, registry *session.Registry, summaries *summarizer.Service, issueTracker tracker.IssueTracker) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, httprouter.Services{
		Registry:  registry,
		Summaries: summaries,
		Files:     issueTracker,
	})

	return router
}

const banner = `
██████╗  █████╗ ███████╗██╗  ██╗██████╗  ██████╗  █████╗ ██████╗ ██████╗
██╔══██╗██╔══██╗██╔════╝██║  ██║██╔══██╗██╔═══██╗██╔══██╗██╔══██╗██╔══██╗
██║  ██║███████║███████╗███████║██████╔╝██║   ██║███████║██████╔╝██║  ██║
██║  ██║██╔══██║╚════██║██╔══██║██╔══██╗██║   ██║██╔══██║██╔══██╗██║  ██║
██████╔╝██║  ██║███████║██║  ██║██████╔╝╚██████╔╝██║  ██║██║  ██║██████╔╝
╚═════╝ ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═════╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝
`
