package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frutalia/ventabot/internal/backend"
	"github.com/frutalia/ventabot/internal/bot"
	"github.com/frutalia/ventabot/internal/bot/handlers"
	"github.com/frutalia/ventabot/internal/cart"
	"github.com/frutalia/ventabot/internal/conversation"
	apperrors "github.com/frutalia/ventabot/internal/errors"
	"github.com/frutalia/ventabot/internal/messaging"
	"github.com/frutalia/ventabot/internal/nlp"
	"github.com/frutalia/ventabot/internal/server"
	"github.com/frutalia/ventabot/internal/session"
	"github.com/frutalia/ventabot/pkg/config"
	"github.com/frutalia/ventabot/pkg/graceful"
	"github.com/frutalia/ventabot/pkg/logger"
	"github.com/frutalia/ventabot/pkg/metrics"
	redispkg "github.com/frutalia/ventabot/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, _, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:         cfg.Log.Level,
		Format:        cfg.Log.Format,
		File:          cfg.Log.File,
		MaxSizeMB:     cfg.Log.MaxSizeMB,
		MaxBackups:    cfg.Log.MaxBackups,
		MaxAgeDays:    cfg.Log.MaxAgeDays,
		SentryEnabled: cfg.Sentry.Enabled,
	})
	slog.SetDefault(log)

	log.Info("starting ventabot",
		"env", cfg.AppEnv,
		"port", cfg.Server.Port,
		"ops_port", cfg.Server.OpsPort,
		"redis", cfg.Redis.Enabled,
		"llm", cfg.LLM.Enabled,
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Error("failed to initialize sentry", "error", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	var (
		convStorage  conversation.Storage
		cartStore    cart.Store
		sessionStore session.Store
		redisClient  *redispkg.Client
	)
	if cfg.Redis.Enabled {
		client, err := redispkg.New(ctx, cfg.Redis.Client)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		redisClient = client
		convStorage = conversation.NewRedisStorage(client.Client, log)
		cartStore = cart.NewRedisStore(client.Client, log)
		sessionStore = session.NewRedisStore(client.Client, log)
	} else {
		log.Warn("redis disabled, state will not survive a restart")
		convStorage = conversation.NewMemoryStorage()
		cartStore = cart.NewMemoryStore()
		sessionStore = session.NewMemoryStore()
	}

	convSvc := conversation.NewService(convStorage, log)
	cartSvc := cart.NewService(cartStore, nil, log)
	sessions := session.NewManager(sessionStore, convSvc, cartSvc, log)
	cartSvc.SetSessionChecker(sessions)

	sender, err := messaging.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From, log)
	if err != nil {
		log.Error("failed to build twilio sender", "error", err)
		os.Exit(1)
	}

	monitor := session.NewMonitor(sessionStore, sessions, convSvc, cartSvc, sender, log)
	go monitor.Run(ctx)

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	var primary nlp.Extractor
	if cfg.LLM.Enabled {
		primary = nlp.NewLLMExtractor(nlp.LLMConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		}, log)
	}
	extractor := nlp.NewFailoverExtractor(primary, nlp.NewKeywordExtractor(), log)

	backendClient := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		APIKey:  cfg.Backend.APIKey,
		Timeout: cfg.Backend.Timeout,
	}, log)

	flows := handlers.NewFlows(sessions, convSvc, cartSvc, backendClient, extractor, sender, errHandler, log)
	dispatcher := bot.NewDispatcher(flows, log)
	router := bot.NewRouter(sessions, convSvc, cartSvc, flows, dispatcher, sender, errHandler, log)

	collector := metrics.NewStateCollector(convSvc)
	go collector.Run(ctx)

	app := server.NewWebhookApp(router, log)
	go func() {
		log.Info("webhook server listening", "addr", ":"+cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Error("webhook server error", "error", err)
			stop()
		}
	}()

	opsMux := http.NewServeMux()
	opsMux.Handle("/metrics", promhttp.Handler())
	opsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Client.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ops := graceful.NewServer(log, &http.Server{
		Addr:    ":" + cfg.Server.OpsPort,
		Handler: opsMux,
	}, cfg.Server.ShutdownTimeout)
	go func() {
		if err := ops.ListenAndServe(ctx); err != nil {
			log.Error("ops server error", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("webhook server shutdown error", "error", err)
	}

	log.Info("ventabot stopped")
}
