package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/onelink/captcha-server-go/internal/config"
	"github.com/onelink/captcha-server-go/internal/handler"
	"github.com/onelink/captcha-server-go/internal/jobs"
	"github.com/onelink/captcha-server-go/internal/metrics"
	"github.com/onelink/captcha-server-go/internal/middleware"
	"github.com/onelink/captcha-server-go/internal/render"
	"github.com/onelink/captcha-server-go/internal/service"
	"github.com/onelink/captcha-server-go/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	table := store.New()
	metrics.RegisterActiveSessions(table.Len)

	renderer := render.NewImageRenderer()
	captchaService := service.NewCaptchaService(table, renderer, cfg.SessionTTL(), cfg.CaptchaTTL())
	captchaHandler := handler.NewCaptchaHandler(captchaService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"sessions":  table.Len(),
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/static/index.html", http.StatusMovedPermanently)
	})

	r.Route("/captcha", func(r chi.Router) {
		r.Mount("/", captchaHandler.Routes())
	})

	r.Route("/static", func(r chi.Router) {
		r.Get("/*", handler.StaticFileServer(cfg.StaticDir).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())

	var cleanupJob *jobs.CleanupJob
	if cfg.CleanupInterval() > 0 {
		cleanupJob = jobs.NewCleanupJob(table, cfg.CleanupInterval())
		cleanupJob.Start()
		defer cleanupJob.Stop()
	} else {
		log.Warn().Msg("background sweep disabled: expired sessions are evicted lazily only")
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
