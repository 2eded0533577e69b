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

	"deskmind.app/support/common/id"
	"deskmind.app/support/common/llm"
	"deskmind.app/support/common/logger"
	"deskmind.app/support/common/otel"
	"deskmind.app/support/common/typesense"
	"deskmind.app/support/core/config"
	"deskmind.app/support/core/db"
	"deskmind.app/support/internal/classify"
	"deskmind.app/support/internal/domain"
	"deskmind.app/support/internal/http/middleware"
	httprouter "deskmind.app/support/internal/http/router"
	"deskmind.app/support/internal/kb"
	"deskmind.app/support/internal/pipeline"
	"deskmind.app/support/internal/policy"
	"deskmind.app/support/internal/queue"
	"deskmind.app/support/internal/service"
	"deskmind.app/support/internal/store"
	"deskmind.app/support/internal/webhook"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
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

	slog.InfoContext(ctx, "support server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	queryStore := store.NewQueryStore(database.Pool())
	subscriptionStore := store.NewSubscriptionStore(database.Pool())
	deliveryStore := store.NewDeliveryStore(database.Pool())

	deliverer := webhook.NewDeliverer(cfg.Webhook.AttemptTimeout)

	scheduler, dispatcher, cleanup, err := setupScheduler(ctx, cfg, subscriptionStore, deliveryStore, deliverer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up delivery scheduler", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	bus := webhook.NewEventBus(subscriptionStore, scheduler)
	webhookService := webhook.NewService(subscriptionStore, deliveryStore, deliverer)

	pipe := setupPipeline(ctx, cfg)
	queryService := service.NewQueryService(queryStore, pipe, bus)
	feedbackService := service.NewFeedbackService(queryStore, bus)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, queryService, feedbackService, webhookService)
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

	// Let in-flight webhook deliveries settle before the process exits.
	if dispatcher != nil {
		dispatcher.Drain()
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// setupScheduler picks the delivery path: the in-process dispatcher by
// default, or a Redis Streams producer feeding the delivery worker.
func setupScheduler(ctx context.Context, cfg config.Config, subs store.SubscriptionStore, deliveries store.DeliveryStore, deliverer *webhook.Deliverer) (webhook.Scheduler, *webhook.Dispatcher, func(), error) {
	if cfg.Webhook.Dispatch == config.DispatchQueue {
		redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parsing redis url: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.Stream)

		producer := queue.NewRedisProducer(redisClient, cfg.Queue.Stream, nil)
		return queue.NewScheduler(producer), nil, func() { producer.Close() }, nil
	}

	dispatcher := webhook.NewDispatcher(subs, deliveries, deliverer, webhook.DispatcherConfig{
		MaxAttempts:   cfg.Webhook.MaxAttempts,
		BackoffBase:   cfg.Webhook.BackoffBase,
		MaxConcurrent: cfg.Webhook.MaxConcurrent,
	})
	return dispatcher, dispatcher, func() {}, nil
}

func setupPipeline(ctx context.Context, cfg config.Config) *pipeline.Pipeline {
	var classifier pipeline.Classifier = classify.RuleClassifier{}
	var sentiment pipeline.SentimentAnalyzer = classify.RuleSentiment{}

	classifierCfg := llmConfig(cfg.ClassifierLLM)
	if classifierCfg.Enabled() {
		client, err := llm.New(classifierCfg)
		if err != nil {
			slog.WarnContext(ctx, "classifier llm unavailable, using rule-based fallback", "error", err)
		} else {
			classifier = classify.NewClassifier(client, cfg.ClassifierLLM.MaxTokens)
			sentiment = classify.NewSentimentAnalyzer(client, cfg.ClassifierLLM.MaxTokens)
			slog.InfoContext(ctx, "classifier llm configured", "model", client.Model())
		}
	} else {
		slog.InfoContext(ctx, "no classifier llm configured, using rule-based classification")
	}

	var lookup kb.Lookup = kb.NewStaticLookup()
	if cfg.Typesense.Enabled() {
		ts, err := typesense.New(typesense.Config{
			URL:        cfg.Typesense.URL,
			APIKey:     cfg.Typesense.APIKey,
			Collection: cfg.Typesense.Collection,
		})
		if err != nil {
			slog.WarnContext(ctx, "typesense unavailable, using built-in articles", "error", err)
		} else {
			if err := kb.Seed(ctx, ts); err != nil {
				slog.WarnContext(ctx, "failed to seed knowledge base", "error", err)
			}
			lookup = kb.NewTypesenseLookup(ts)
			slog.InfoContext(ctx, "typesense knowledge base configured", "collection", cfg.Typesense.Collection)
		}
	}

	router := pipeline.NewRouter(pipeline.StaticResponder{})
	responderCfg := llmConfig(cfg.ResponderLLM)
	if responderCfg.Enabled() {
		client, err := llm.New(responderCfg)
		if err != nil {
			slog.WarnContext(ctx, "responder llm unavailable, using template responses", "error", err)
		} else {
			router = pipeline.NewRouter(pipeline.NewLLMResponder(client, domain.CategoryGeneral, cfg.ResponderLLM.MaxTokens))
			for _, category := range []domain.Category{domain.CategoryTechnical, domain.CategoryBilling, domain.CategoryAccount} {
				router.Register(category, pipeline.NewLLMResponder(client, category, cfg.ResponderLLM.MaxTokens))
			}
			slog.InfoContext(ctx, "responder llm configured", "model", client.Model())
		}
	}

	scorer := policy.NewScorer(policy.DefaultWeights())
	escalation := policy.NewEscalationPolicy(cfg.Policy.EscalationKeywords)

	return pipeline.New(classifier, sentiment, lookup, router, scorer, escalation)
}

func llmConfig(cfg config.LLMConfig) llm.Config {
	return llm.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
	}
}

func setupRouter(cfg config.Config, queries service.QueryService, feedback service.FeedbackService, webhooks *webhook.Service) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, queries, feedback, webhooks)

	return router
}

const banner = `
██████╗ ███████╗███████╗██╗  ██╗███╗   ███╗██╗███╗   ██╗██████╗
██╔══██╗██╔════╝██╔════╝██║ ██╔╝████╗ ████║██║████╗  ██║██╔══██╗
██║  ██║█████╗  ███████╗█████╔╝ ██╔████╔██║██║██╔██╗ ██║██║  ██║
██║  ██║██╔══╝  ╚════██║██╔═██╗ ██║╚██╔╝██║██║██║╚██╗██║██║  ██║
██████╔╝███████╗███████║██║  ██╗██║ ╚═╝ ██║██║██║ ╚████║██████╔╝
╚═════╝ ╚══════╝╚══════╝╚═╝  ╚═╝╚═╝     ╚═╝╚═╝╚═╝  ╚═══╝╚═════╝
`
