package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hdreventsza-arch/hrd-events/config"
	"github.com/hdreventsza-arch/hrd-events/handlers"
	"github.com/hdreventsza-arch/hrd-events/services"
	"github.com/hdreventsza-arch/hrd-events/utils"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	if cfg.SubmissionEndpoint == "" {
		log.Printf("WARNING: %s not set. Submissions will fail with a configuration error.", config.EndpointEnvKey)
	}
	if cfg.JWTSecretKey == "" {
		cfg.JWTSecretKey = "your-default-jwt-secret-change-in-production"
		log.Println("WARNING: Using default JWT secret. Set JWT_SECRET_KEY env var in production.")
	}

	var notifier services.Notifier
	if cfg.NATSUrl != "" {
		natsService, err := services.NewNATSService(cfg.NATSUrl, cfg.ApplicationSubmittedSubject, cfg.SiteCode)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsService.Close()
		notifier = natsService
	}

	validator := utils.NewValidator()
	intakeClient := services.NewIntakeClient(&http.Client{})
	store := services.NewDraftStore(cfg.DraftTTL, func(id string) *services.Form {
		return services.NewForm(services.FormOptions{
			ID:        id,
			Endpoint:  cfg.SubmissionEndpoint,
			Submitter: intakeClient,
			Validator: validator,
			Notifier:  notifier,
			Logger:    logger,
		})
	}, logger)
	defer store.Close()

	e := echo.New()
	e.Validator = validator
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("8M"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(context.Background(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	}))

	jwtService := services.NewJWTService(cfg.JWTSecretKey, cfg.DraftTTL)
	turnstileService := services.NewTurnstileService(cfg.TurnstileSecretKey)
	if !turnstileService.Enabled() {
		log.Println("WARNING: TURNSTILE_SECRET_KEY not set. Draft creation is not bot-protected.")
	}
	applicationHandler := handlers.NewApplicationHandler(store, jwtService, turnstileService, cfg.SubmitTimeout, logger)

	// Routes
	e.GET("/config", handlers.HandleConfig)
	applicationHandler.Register(e)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("API started on :" + cfg.Port)
	if err := serve(ctx, e, ":"+cfg.Port, 30*time.Second); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

// serve runs e until ctx is done, then gives in-flight requests grace to
// finish. The deferred closes in main run only after it returns.
func serve(ctx context.Context, e *echo.Echo, addr string, grace time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return <-errc
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
