package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/smartdent/smartdent/internal/catalog"
	"github.com/smartdent/smartdent/internal/config"
	"github.com/smartdent/smartdent/internal/domain/alert"
	"github.com/smartdent/smartdent/internal/domain/appointment"
	"github.com/smartdent/smartdent/internal/domain/patient"
	"github.com/smartdent/smartdent/internal/domain/procedure"
	"github.com/smartdent/smartdent/internal/domain/riskanalysis"
	"github.com/smartdent/smartdent/internal/domain/summary"
	"github.com/smartdent/smartdent/internal/platform/auth"
	"github.com/smartdent/smartdent/internal/platform/db"
	"github.com/smartdent/smartdent/internal/platform/events"
	"github.com/smartdent/smartdent/internal/platform/middleware"
	"github.com/smartdent/smartdent/internal/platform/openapi"
	"github.com/smartdent/smartdent/internal/platform/telemetry"
	"github.com/smartdent/smartdent/internal/platform/websocket"
)

const alertStreamPath = "/api/v1/alerts/stream"

type repos struct {
	patients     patient.Repository
	appointments appointment.Repository
	procedures   procedure.Repository
	alerts       alert.Repository
}

func newRepos(pool *pgxpool.Pool) repos {
	return repos{
		patients:     patient.NewRepoPG(pool),
		appointments: appointment.NewRepoPG(pool),
		procedures:   procedure.NewRepoPG(pool),
		alerts:       alert.NewRepoPG(pool),
	}
}

type services struct {
	catalog      *catalog.Catalog
	patients     *patient.Service
	appointments *appointment.Service
	procedures   *procedure.Service
	alerts       *alert.Service
	summaries    *summary.Service
	risk         *riskanalysis.Service
	stream       *websocket.Hub
}

// newServices wires the domain services. Alert events go to publisher and to
// the websocket hub backing /api/v1/alerts/stream.
func newServices(cfg *config.Config, logger zerolog.Logger, r repos, tx db.Transactor, cat *catalog.Catalog, publisher events.Publisher) *services {
	hub := websocket.NewHub(logger.With().Str("component", "alert-stream").Logger())
	patientSvc := patient.NewService(r.patients, cat, tx)
	apptSvc := appointment.NewService(r.appointments, r.patients, r.procedures, tx)
	procSvc := procedure.NewService(r.procedures, r.appointments, cat)
	alertSvc := alert.NewService(r.alerts, r.patients)
	patientSvc.AddDependents(apptSvc, alertSvc)

	summarySvc := summary.NewService(patientSvc, apptSvc, r.procedures)
	classifier := riskanalysis.NewClient(cfg.ClassifierURL, cfg.ClassifierTimeout)
	riskSvc := riskanalysis.NewService(summarySvc, classifier, alertSvc, tx, events.Fanout{publisher, hub},
		logger.With().Str("component", "riskanalysis").Logger())

	return &services{
		catalog:      cat,
		patients:     patientSvc,
		appointments: apptSvc,
		procedures:   procSvc,
		alerts:       alertSvc,
		summaries:    summarySvc,
		risk:         riskSvc,
		stream:       hub,
	}
}

func newPublisher(cfg *config.Config, logger zerolog.Logger) events.Publisher {
	if !cfg.EventsEnabled() {
		logger.Info().Msg("KAFKA_BROKERS not set, alert events disabled")
		return events.NopPublisher{}
	}
	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.AlertTopic).Msg("publishing alert events to kafka")
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AlertTopic)
}

// newServer builds the echo instance with the global middleware chain and
// every route. pinger backs the database health check.
func newServer(cfg *config.Config, logger zerolog.Logger, svcs *services, pinger db.Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(!cfg.IsDev()))
	e.Use(middleware.Sanitize(logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.AnalysisBodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, telemetry.TraceIDHeader},
	}))
	e.Use(telemetry.Middleware(otel.GetTracerProvider()))
	// Classifier calls carry their own deadline; streams are long-lived.
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, middleware.AnalysisPath, alertStreamPath))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if pinger != nil {
		e.GET("/health/db", db.HealthHandler(pinger))
	}

	var authMW echo.MiddlewareFunc
	if cfg.IsDev() && cfg.AuthSigningKey == "" {
		logger.Warn().Msg("development mode without AUTH_SIGNING_KEY: every request runs as admin")
		authMW = auth.DevAuthMiddleware()
	} else {
		authMW = auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			SigningKey: []byte(cfg.AuthSigningKey),
		})
	}

	apiV1 := e.Group("/api/v1", authMW, middleware.Audit(logger))

	catalog.NewHandler(svcs.catalog).RegisterRoutes(apiV1)
	patient.NewHandler(svcs.patients).RegisterRoutes(apiV1)
	appointment.NewHandler(svcs.appointments).RegisterRoutes(apiV1)
	procedure.NewHandler(svcs.procedures).RegisterRoutes(apiV1)
	alert.NewHandler(svcs.alerts).RegisterRoutes(apiV1)
	summary.NewHandler(svcs.summaries).RegisterRoutes(apiV1)
	riskanalysis.NewHandler(svcs.risk).RegisterRoutes(apiV1, middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.AnalysisRateRPS,
		BurstSize:         cfg.AnalysisRateBurst,
	}))
	websocket.NewHandler(svcs.stream, cfg.CORSOrigins, []string{riskanalysis.EventAlertUpserted},
		logger.With().Str("component", "alert-stream").Logger()).RegisterRoutes(apiV1)

	openapi.NewGenerator(e, "/api/v1", version, cfg.PublicURL()).RegisterRoutes(e)
	return e
}

func runServer(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.OTelEnabled,
		ServiceName:    "smartdent",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Endpoint:       cfg.OTelEndpoint,
		SampleRatio:    cfg.OTelSamplerRatio,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}

	publisher := newPublisher(cfg, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("event publisher close failed")
		}
	}()

	svcs := newServices(cfg, logger, newRepos(pool), db.NewTransactor(pool), cat, publisher)
	defer svcs.stream.Close()
	e := newServer(cfg, logger, svcs, pool)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("starting SmartDent API server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
