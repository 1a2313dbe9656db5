package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/scorewatch/scorewatch/external/espn"
	"github.com/scorewatch/scorewatch/external/logocdn"
	"github.com/scorewatch/scorewatch/external/webhook"
	"github.com/scorewatch/scorewatch/internal/config"
	"github.com/scorewatch/scorewatch/internal/infrastructure/repository/file"
	"github.com/scorewatch/scorewatch/internal/interfaces/httpapi"
	"github.com/scorewatch/scorewatch/internal/monitor"
	"github.com/scorewatch/scorewatch/internal/observability"
	"github.com/scorewatch/scorewatch/internal/platform/logging"
	"github.com/scorewatch/scorewatch/internal/platform/resilience"
)

// App bundles the monitor engine, the HTTP API and the observability
// side-servers behind a single Run/Shutdown lifecycle.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	monitor    *monitor.Monitor
	server     *http.Server
	prefetcher *logocdn.Prefetcher

	pprofServer     *http.Server
	stopPyroscope   func() error
	shutdownUptrace func(context.Context) error
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, err
	}
	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return nil, err
	}

	prefetcher, err := logocdn.NewPrefetcher(logocdn.Config{
		Dir:     cfg.LogoDir,
		Workers: cfg.LogoPrefetchWorkers,
		Timeout: cfg.LogoPrefetchTimeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	fetcher := espn.NewClient(espn.ClientConfig{
		Timeout:    cfg.ESPNTimeout,
		MaxRetries: cfg.ESPNMaxRetries,
		UserAgent:  cfg.ESPNUserAgent,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ESPNCircuitEnabled,
			FailureThreshold: cfg.ESPNCircuitFailureCount,
			OpenTimeout:      cfg.ESPNCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ESPNCircuitHalfOpenReq,
		},
	})
	normalizer := espn.NewNormalizer(prefetcher, logger)

	snapshots, err := file.NewSnapshotRepository(cfg.SnapshotPath, cfg.SnapshotCoalesce)
	if err != nil {
		return nil, err
	}
	settingsRepo, err := file.NewSettingsRepository(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}

	var presenter monitor.Presenter
	if cfg.WebhookEnabled {
		presenter, err = webhook.NewNotifier(webhook.Config{
			URL:     cfg.WebhookURL,
			Token:   cfg.WebhookToken,
			Timeout: cfg.WebhookTimeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
	} else {
		presenter = monitor.NewLogPresenter(logger)
	}

	mon, err := monitor.New(monitor.Config{
		FastInterval:   cfg.PollFastInterval,
		SlowInterval:   cfg.PollSlowInterval,
		DequeueGrace:   cfg.NotificationGrace,
		RetryDelay:     cfg.NotificationRetry,
		DebounceWindow: cfg.ListenerDebounce,
		GoalFlagTTL:    cfg.GoalFlagTTL,
		MaxDeferrals:   cfg.ScoreDeferralRetries,
		Logger:         logger,
	}, fetcher, normalizer, snapshots, settingsRepo, presenter)
	if err != nil {
		return nil, err
	}

	handler := httpapi.NewHandler(mon, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	pprofServer, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		monitor:         mon,
		server:          server,
		prefetcher:      prefetcher,
		pprofServer:     pprofServer,
		stopPyroscope:   stopPyroscope,
		shutdownUptrace: shutdownUptrace,
	}, nil
}

// Run starts the monitor and the HTTP server and blocks until ctx is
// cancelled, then shuts everything down in reverse order.
func (a *App) Run(ctx context.Context) error {
	if err := a.monitor.Start(ctx); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var firstErr error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown failed", "error", err)
		firstErr = err
	}

	a.monitor.Wait()
	a.prefetcher.Close()

	if err := observability.StopPprofServer(a.pprofServer, a.logger, 5*time.Second); err != nil {
		a.logger.Error("pprof shutdown failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if a.stopPyroscope != nil {
		if err := a.stopPyroscope(); err != nil {
			a.logger.Error("pyroscope stop failed", "error", err)
		}
	}
	if a.shutdownUptrace != nil {
		if err := a.shutdownUptrace(shutdownCtx); err != nil {
			a.logger.Error("uptrace shutdown failed", "error", err)
		}
	}

	a.logger.Info("scorewatch stopped")
	return firstErr
}
