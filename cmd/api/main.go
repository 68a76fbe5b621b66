package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Revaldoo24/govai-platform/internal/application"
	appproxy "github.com/Revaldoo24/govai-platform/internal/application/proxy"
	"github.com/Revaldoo24/govai-platform/internal/config"
	"github.com/Revaldoo24/govai-platform/internal/domain/gateway"
	"github.com/Revaldoo24/govai-platform/internal/domain/journal"
	"github.com/Revaldoo24/govai-platform/internal/infra/db"
	"github.com/Revaldoo24/govai-platform/internal/infra/httpserver"
	"github.com/Revaldoo24/govai-platform/internal/infra/upstream"
	"github.com/Revaldoo24/govai-platform/internal/logger"
	"github.com/Revaldoo24/govai-platform/internal/middleware"
	"github.com/Revaldoo24/govai-platform/internal/telemetry"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("config load error")
	}

	if err := logger.Setup(logger.Options{
		App:              cfg.Telemetry.ServiceName,
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		ElasticsearchURL: cfg.Log.ElasticsearchURL,
		Index:            cfg.Log.Index,
	}); err != nil {
		log.Fatal().Err(err).Msg("logger setup error")
	}

	ctx := context.Background()

	shutdownTracing := telemetry.Init(ctx, telemetry.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})

	for name, value := range map[string]string{
		gateway.SettingPipelineURL:   cfg.Upstream.PipelineURL,
		gateway.SettingGovernanceURL: cfg.Upstream.GovernanceURL,
	} {
		if value == "" {
			log.Warn().Str("setting", name).Msg("upstream base url not set, dependent routes will answer 500")
		}
	}

	// optional access journal
	repo, journalDB, err := openJournal(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Journal.Driver).Msg("journal init error")
	}
	if journalDB != nil {
		defer journalDB.Close()
	}

	httpClient := telemetry.InstrumentClient(&http.Client{})
	svc := &appproxy.Service{
		Upstream: upstream.NewClient(httpClient, cfg.Upstream.Timeout),
		Settings: appproxy.Settings{
			PipelineURL:   cfg.Upstream.PipelineURL,
			GovernanceURL: cfg.Upstream.GovernanceURL,
			APIKey:        cfg.Upstream.APIKey,
		},
		Journal: repo,
		Clock:   application.SystemClock{},
	}

	probeClient := &http.Client{Timeout: 3 * time.Second}
	readiness := map[string]middleware.HealthChecker{
		"pipeline":   upstream.NewHealthChecker(probeClient, cfg.Upstream.PipelineURL, gateway.SettingPipelineURL),
		"governance": upstream.NewHealthChecker(probeClient, cfg.Upstream.GovernanceURL, gateway.SettingGovernanceURL),
	}
	if journalDB != nil {
		readiness["journal"] = &middleware.DatabaseHealthChecker{DB: journalDB}
	}

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(svc, httpserver.Options{
		Logger:         &log.Logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Metrics:        cfg.Metrics.Enabled,
		Readiness:      readiness,
		Tracing:        telemetry.HTTPMiddleware(cfg.Telemetry.ServiceName),
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	if err := shutdownTracing(ctx2); err != nil {
		log.Warn().Err(err).Msg("tracer shutdown error")
	}
}

// openJournal connects the configured journal backend and creates its
// table. An empty driver disables the journal.
func openJournal(ctx context.Context, cfg *config.Config) (journal.Repository, *sql.DB, error) {
	repo, conn, err := db.OpenJournal(ctx, cfg)
	if errors.Is(err, db.ErrJournalDisabled) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(sctx); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("journal schema: %w", err)
	}
	log.Info().Str("driver", cfg.Journal.Driver).Msg("access journal enabled")
	return repo, conn, nil
}
