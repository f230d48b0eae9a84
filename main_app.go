package main

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/pkg/errors"

	"github.com/metermill/rateplan-console/apiserver"
	"github.com/metermill/rateplan-console/apiserver/auth"
	"github.com/metermill/rateplan-console/rateplanio"
	"github.com/metermill/rateplan-console/rateplanstore"
	"github.com/metermill/rateplan-console/usagecollector"
)

type App struct {
	wg       sync.WaitGroup
	ctx      context.Context
	store    rateplanio.AdminStore
	logger   lager.Logger
	cfg      Config
	Shutdown context.CancelFunc
}

func (app *App) Init() error {
	return app.store.Init()
}

func (app *App) StartUsageCollector() error {
	name := "usage-collector"
	logger := app.logger.Session(name)
	feedCfg := app.cfg.Feed
	feedCfg.Logger = logger
	fetcher, err := usagecollector.NewFeedFetcher(feedCfg)
	if err != nil {
		return err
	}
	collector := usagecollector.New(usagecollector.Config{
		Logger:      logger,
		Store:       app.store,
		Fetcher:     fetcher,
		Schedule:    app.cfg.Collector.Schedule,
		MinWaitTime: app.cfg.Collector.MinWaitTime,
	})
	return app.start(name, logger, func() error {
		return collector.Run(app.ctx)
	})
}

func (app *App) StartAPIServer() error {
	name := "api"
	logger := app.logger.Session(name)
	if app.cfg.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY must be set to serve the API")
	}
	apiAuthenticator := &auth.JWT{
		SigningKey: []byte(app.cfg.AuthSigningKey),
	}
	apiServer := apiserver.New(apiserver.Config{
		Store:         app.store,
		Authenticator: apiAuthenticator,
		Logger:        logger,
	})
	return app.start(name, logger, func() error {
		return apiserver.ListenAndServe(
			app.ctx,
			logger,
			apiServer,
			app.cfg.ListenAddr,
		)
	})
}

func (app *App) StartPeriodicMetrics() error {
	name := "periodic-metrics"
	logger := app.logger.Session(name)
	return app.start(name, logger, func() error {
		runPeriodicMetricsLoop(app.ctx, logger, app.cfg.Processor.PeriodicMetricsSchedule, app.store)
		return nil
	})
}

func runPeriodicMetricsLoop(ctx context.Context, logger lager.Logger, schedule time.Duration, store rateplanio.AdminStore) {
	for {
		if err := store.RecordPeriodicMetrics(); err != nil {
			logger.Error("periodic-metrics-error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(schedule):
		}
	}
}

func (app *App) start(name string, logger lager.Logger, fn func() error) error {
	app.wg.Add(1)
	go func() {
		logger.Info("starting")
		defer logger.Info("stopped")
		defer app.wg.Done()
		defer app.Shutdown()
		if err := fn(); err != nil {
			logger.Error("stop-with-error", err)
		}
	}()
	return nil
}

func (app *App) Wait() error {
	app.wg.Wait()
	return nil
}

func New(ctx context.Context, cfg Config) (*App, error) {
	ctx, shutdown := context.WithCancel(ctx)

	go func() {
		defer shutdown()
		<-ctx.Done()
		cfg.Logger.Info("stopping")
	}()

	if cfg.Logger == nil {
		cfg.Logger = lager.NewLogger("app")
	}

	if cfg.Store == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("Store or DatabaseURL must be provided in Config")
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to database")
		}
		db.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)
		db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
		cfg.Store = rateplanstore.New(ctx, db, cfg.Logger.Session("store"))
	}

	app := &App{
		cfg:      cfg,
		ctx:      ctx,
		Shutdown: shutdown,
		store:    cfg.Store,
		logger:   cfg.Logger,
	}

	return app, nil
}
