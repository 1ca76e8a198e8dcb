package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"brandforge/internal/adapter/repo"
	"brandforge/internal/http/handlers"
	"brandforge/internal/http/httpapi"
	"brandforge/internal/infra"
	"brandforge/internal/infra/geoip"
	appmw "brandforge/internal/middleware"
	"brandforge/internal/notify"
	"brandforge/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sqlRunner := infra.NewSQLRunner(dbpool, logger)

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare storage")
	}

	var countryLookup appmw.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		countryLookup = resolver.CountryCode
	}

	hub := notify.NewHub()
	listenCtx, stopListener := context.WithCancel(ctx)
	defer stopListener()
	go notify.NewPGListener(dbpool, hub, logger).Run(listenCtx)

	app := &handlers.App{
		Jobs:     repo.NewJobRepository(sqlRunner),
		Reports:  repo.NewReportRepository(sqlRunner),
		Sessions: repo.NewSessionRepository(sqlRunner),
		Hub:      hub,
		Files:    files,
		Config:   cfg,
		Log:      logger,
	}

	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		DefaultLocale:  cfg.DefaultLocale,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimitPerMin,
		CountryLookup:  countryLookup,
		StaticDir:      files.BasePath(),
	})

	server := infra.NewHTTPServer(":"+cfg.Port, router, infra.ServerTimeouts{
		Read:       cfg.HTTPReadTimeout,
		ReadHeader: 5 * time.Second,
		Write:      cfg.HTTPWriteTimeout,
		Idle:       cfg.HTTPIdleTimeout,
	})

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
