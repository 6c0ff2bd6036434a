package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/hong9883/ai-drug-approval-test/internal/config"
	"github.com/hong9883/ai-drug-approval-test/internal/gateway"
	"github.com/hong9883/ai-drug-approval-test/internal/logging"
)

// env is what every command needs to talk to the backend.
type env struct {
	cfg     *config.Config
	logger  *logging.Logger
	client  *gateway.Client
	metrics *http.Server
}

// setup loads the configuration and wires the logger, the rate limited
// gateway client and the optional metrics listener. interactive keeps log
// output off the terminal.
func (o *rootOptions) setup(interactive bool) (*env, error) {
	cfg, err := config.LoadFrom(o.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.backendURL != "" {
		cfg.BackendURL = o.backendURL
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", o.configDir, err)
	}

	logger, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.LogFilePath(o.configDir),
		Console: !interactive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var limiter *rate.Limiter
	if rps := cfg.RateLimit.RequestsPerSecond; rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), max(cfg.RateLimit.Burst, 1))
	}

	client, err := gateway.NewClient(gateway.Options{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.RequestTimeout,
		Limiter: limiter,
		Metrics: gateway.NewMetrics(reg),
		Logger:  logger.Logger,
	})
	if err != nil {
		logger.Close()
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger, client: client}
	if cfg.MetricsAddr != "" {
		e.metrics = serveMetrics(cfg.MetricsAddr, reg, logger.Component("metrics"))
	}

	logger.WithFields(logrus.Fields{
		"backend": client.BaseURL(),
		"user":    cfg.User.Name,
		"version": AppVersion,
	}).Debug("reviewdesk configured")
	return e, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log logrus.FieldLogger) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("addr", addr).Info("metrics listener started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("metrics listener stopped")
		}
	}()
	return srv
}

// close stops the metrics listener and flushes the log file.
func (e *env) close() {
	if e.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		e.metrics.Shutdown(ctx)
		cancel()
	}
	e.logger.Close()
}
