package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/braunma/netbox-topology/internal/config"
	"github.com/braunma/netbox-topology/pkg/api"
	"github.com/braunma/netbox-topology/pkg/audit"
	"github.com/braunma/netbox-topology/pkg/store"
	"github.com/braunma/netbox-topology/pkg/topology"
	"github.com/braunma/netbox-topology/pkg/utils"
)

var ErrNotInitialized = errors.New("server not initialized (call Initialize(cfg) first)")

// App is the HTTP service with its scheduled audits
type App struct {
	cfg        *config.Config
	Router     *mux.Router
	httpServer *http.Server

	log     *logrus.Logger
	store   topology.Store
	reports *store.ReportStore
	engine  *topology.Engine
	jobs    *Jobs
	cron    *cron.Cron
}

// OpenStore opens the relational store selected by cfg, or an in-memory store when no
// driver is configured
func OpenStore(cfg config.DatabaseConfig) (topology.Store, error) {
	if cfg.Driver == "" {
		return store.NewMemoryStore(), nil
	}
	db, err := store.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open failed: %w", err)
	}
	return store.NewGormStore(db)
}

func (a *App) Initialize(cfg *config.Config) error {
	a.cfg = cfg

	logger, err := utils.NewStructuredLogger(utils.LogOptions{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return err
	}
	a.log = logger

	if a.store, err = OpenStore(cfg.Database); err != nil {
		return err
	}
	if a.reports, err = store.OpenReportStore(cfg.Reports.Path, logger); err != nil {
		a.store.Close()
		return err
	}

	a.engine = topology.NewEngine(a.store, logger)
	auditor := audit.NewAuditor(logger)
	a.jobs = NewJobs(cfg, a.engine, auditor, a.reports, logger)

	a.Router = api.NewRouter(api.NewHTTP(a.engine, auditor, a.reports, logger))

	a.cron = cron.New()
	if cfg.Audit.Schedule != "" {
		if _, err := a.cron.AddFunc(cfg.Audit.Schedule, a.jobs.ScheduledAudit); err != nil {
			a.Close()
			return fmt.Errorf("failed to add audit job: %w", err)
		}
		logger.WithFields(logrus.Fields{
			"schedule": cfg.Audit.Schedule,
			"source":   cfg.Audit.Source,
		}).Info("scheduled audits enabled")
	}
	if cfg.Reports.Retention > 0 {
		if _, err := a.cron.AddFunc("@hourly", a.jobs.PruneReports); err != nil {
			a.Close()
			return fmt.Errorf("failed to add retention job: %w", err)
		}
	}

	_ = a.Router.Walk(func(rt *mux.Route, r *mux.Router, ancestors []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		logger.Debugf("route: %-6v %s", methods, path)
		return nil
	})
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (a *App) Run(ctx context.Context) error {
	if a.Router == nil || a.cfg == nil {
		return ErrNotInitialized
	}
	bind := a.cfg.ListenAddr()

	a.httpServer = &http.Server{
		Addr:         bind,
		Handler:      a.Router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", bind, err)
	}

	a.cron.Start()
	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("address", bind).Info("HTTP listening")
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			a.Close()
			return fmt.Errorf("http server error: %w", err)
		}
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	<-a.cron.Stop().Done()
	err = a.httpServer.Shutdown(shutdownCtx)
	a.Close()
	return err
}

// Close releases the stores
func (a *App) Close() {
	if a.reports != nil {
		if err := a.reports.Close(); err != nil {
			a.log.WithError(err).Warn("failed to close report store")
		}
		a.reports = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.WithError(err).Warn("failed to close store")
		}
		a.store = nil
	}
}

// Jobs returns the scheduled jobs
func (a *App) Jobs() *Jobs {
	return a.jobs
}
