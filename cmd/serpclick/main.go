package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/user/serpclick/internal/api"
	"github.com/user/serpclick/internal/browser"
	"github.com/user/serpclick/internal/captcha"
	"github.com/user/serpclick/internal/config"
	"github.com/user/serpclick/internal/monitoring"
	"github.com/user/serpclick/internal/report"
	"github.com/user/serpclick/internal/run"
	"github.com/user/serpclick/internal/search"
	"github.com/user/serpclick/internal/storage"
)

const configFile = "config.json"

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)
	tracker := run.NewTracker(len(cfg.Keywords))

	// Optional live status server; a pure observer of the run.
	var server *api.Server
	if cfg.MetricsAddr != "" {
		server = api.NewServer(cfg.MetricsAddr, tracker, registry, logger)
		go func() {
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("status server stopped", zap.Error(err))
			}
		}()
		logger.Info("status server listening", zap.String("addr", cfg.MetricsAddr))
	}

	// Optional keyword cooldown store.
	var cooldown run.Cooldown
	if cfg.RedisAddr != "" && cfg.KeywordCooldown > 0 {
		redisStore := storage.NewRedisStore(cfg.RedisAddr)
		if err := redisStore.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, keyword cooldown disabled", zap.Error(err))
		} else {
			cooldown = redisStore
		}
	}

	// Optional run-history store.
	var history *storage.PostgresStore
	if cfg.PostgresURL != "" {
		history, err = storage.NewPostgresStore(ctx, cfg.PostgresURL)
		if err == nil {
			err = history.Ping(ctx)
		}
		if err != nil {
			logger.Warn("postgres unreachable, run history disabled", zap.Error(err))
			if history != nil {
				history.Close()
				history = nil
			}
		} else {
			defer history.Close()
		}
	}

	session, err := browser.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to launch browser", zap.Error(err))
	}
	defer session.Close()

	scanner, err := search.NewScanner(cfg.TargetURL, cfg.MaxResultsToCheck)
	if err != nil {
		logger.Fatal("invalid target url", zap.Error(err))
	}
	engine := search.NewEngine(session, cfg.SearchURL, cfg.ClickDelay, logger)

	var solver captcha.Solver
	if cfg.CaptchaService == config.ServiceTwoCaptcha {
		solver = captcha.NewTwoCaptcha(cfg.CaptchaAPIKey, cfg.CaptchaPollInterval, cfg.CaptchaSolveTimeout)
	}
	handler := captcha.NewHandler(captcha.MarkupDetector{}, solver, captcha.Policy{
		Skip:         cfg.SkipCaptcha,
		ManualWait:   cfg.WaitForCaptchaManual,
		ManualWindow: cfg.ManualCaptchaWait,
	}, logger)

	runner := run.NewRunner(run.Deps{
		Driver:      engine,
		Page:        session,
		Scanner:     scanner,
		Captcha:     handler,
		Cooldown:    cooldown,
		CooldownTTL: cfg.KeywordCooldown,
		SearchDelay: cfg.SearchDelay,
		Tracker:     tracker,
		Metrics:     metrics,
		Logger:      logger,
	})

	startedAt := time.Now()
	logger.Info("starting run",
		zap.Int("keywords", len(cfg.Keywords)),
		zap.String("target", cfg.TargetURL))

	outcomes := runner.Run(ctx, cfg.Keywords)

	if history != nil {
		if err := history.SaveRun(ctx, startedAt, time.Now(), cfg.TargetURL, outcomes); err != nil {
			logger.Error("failed to persist run history", zap.Error(err))
		}
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("status server shutdown", zap.Error(err))
		}
	}

	if err := report.Write(os.Stdout, outcomes); err != nil {
		logger.Error("failed to write report", zap.Error(err))
	}
}
