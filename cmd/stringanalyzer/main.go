package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/api"
	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/config"
	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/datasource"
	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/logging"
	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/nlquery"
	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/result"
	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/service"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

func main() {
	bootLog := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })).With().Timestamp().Logger()

	cfg, err := config.Load(".env")
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = cfg.LogFormat
	logCfg.FilePath = cfg.LogFile
	log, closeLog, err := logging.New(logCfg, os.Stdout)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer closeLog()

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("String analyzer stopped with error")
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := datasource.Migrate(db.DB, log); err != nil {
		return err
	}

	store := datasource.NewDataSourceService(db, log)

	cache := result.NewResultCache(cfg.Cache, log)
	defer cache.Stop()

	svc, err := service.NewStringService(store, nlquery.NewParser(log), cache, service.Options{
		RecordCacheSize: cfg.RecordCacheSize,
		RecordCacheTTL:  cfg.RecordCacheTTL,
		QueryTimeout:    cfg.QueryTimeout,
	}, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewStringRouter(svc, log).SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("String analyzer listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
