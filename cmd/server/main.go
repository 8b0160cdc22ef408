package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/partpricing/internal/cache"
	"github.com/Simplici0/partpricing/internal/config"
	"github.com/Simplici0/partpricing/internal/db"
	"github.com/Simplici0/partpricing/internal/events"
	"github.com/Simplici0/partpricing/internal/migrations"
	"github.com/Simplici0/partpricing/internal/seed"
	"github.com/Simplici0/partpricing/internal/service"
	"github.com/Simplici0/partpricing/internal/store"
	"github.com/Simplici0/partpricing/pkg/logx"
)

type server struct {
	auth      *authService
	store     *store.Store
	pricing   *service.Pricing
	maxUpload int64
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load configuration")
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database); err != nil {
			logx.Fatal().Err(err).Msg("failed to run database migrations")
		}
	}

	stats, err := seed.Run(ctx, database, seed.Config{AdminEmail: cfg.AdminEmail, AdminPassword: cfg.AdminPassword})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to seed database")
	}
	logx.Info().Int("inserts", stats.Inserts).Msg("seed complete")

	st := store.New(database)
	var opts []service.Option

	if cfg.RedisURL != "" {
		client, err := cache.Config{URL: cfg.RedisURL, ReadTimeout: 3 * time.Second, WriteTimeout: 3 * time.Second}.NewClient(ctx)
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		opts = append(opts, service.WithCache(cache.NewRedis(client, time.Hour)))
		logx.Info().Msg("snapshot cache enabled")
	}

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher := events.NewKafka(events.NewKafkaWriter(brokers, cfg.KafkaTopic))
		defer publisher.Close()
		opts = append(opts, service.WithPublisher(publisher))
		logx.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("run events enabled")
	}

	srv := &server{
		auth:      newAuthService(st, cfg.SessionSecret),
		store:     st,
		pricing:   service.NewPricing(st, opts...),
		maxUpload: cfg.MaxUploadBytes(),
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logx.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logx.Info().Str("addr", httpServer.Addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Fatal().Err(err).Msg("server stopped")
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logx.Middleware)

	r.Get("/health", s.handleHealth)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth.requireSession)

		r.Get("/markup-table", s.handleGetMarkupTable)
		r.Put("/markup-table", s.handleReplaceMarkupTable)
		r.Post("/markup-table/reset", s.handleResetMarkupTable)
		r.Post("/markup-table/increase", s.handleIncreaseMarkup)

		r.Get("/categories", s.handleGetCategories)
		r.Put("/categories/{category}", s.handleSetCategory)
		r.Post("/categories/increase", s.handleIncreaseCategories)
		r.Post("/categories/reset", s.handleResetCategories)

		r.Post("/ingest/validate", s.handleValidateUpload)
		r.Post("/pricing/runs", s.handleCreateRun)
		r.Get("/pricing/runs", s.handleListRuns)
		r.Get("/priced-parts", s.handleListPricedParts)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.xlsx", s.handleExportXLSX)
	})

	return r
}
