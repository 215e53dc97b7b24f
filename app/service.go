// Package app wires the configuration into a running dispatch service:
// storage backend, notifiers, metrics sinks, coordinator and HTTP API.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-ems/lifeline/api"
	"github.com/lifeline-ems/lifeline/config"
	"github.com/lifeline-ems/lifeline/core/auth"
	"github.com/lifeline-ems/lifeline/core/dispatch"
	"github.com/lifeline-ems/lifeline/core/events"
	coremetrics "github.com/lifeline-ems/lifeline/core/metrics"
	"github.com/lifeline-ems/lifeline/core/scoring"
	"github.com/lifeline-ems/lifeline/infra/logger"
	"github.com/lifeline-ems/lifeline/infra/memstore"
	"github.com/lifeline-ems/lifeline/infra/metrics"
	"github.com/lifeline-ems/lifeline/infra/notify"
	"github.com/lifeline-ems/lifeline/infra/pgstore"
	"github.com/lifeline-ems/lifeline/internal/eventbus"
)

// Service owns the assembled dispatch engine and its HTTP front.
type Service struct {
	Coordinator *dispatch.Coordinator
	Store       dispatch.Store

	cfg     *config.Config
	bus     *eventbus.Bus
	router  *gin.Engine
	log     logger.Logger
	closers []func()
}

// New assembles a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	svc := &Service{cfg: cfg, log: logg}

	store, err := svc.buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc.Store = store

	scorer, err := scoring.NewScorer(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}

	svc.bus = eventbus.New()
	svc.closers = append(svc.closers, svc.bus.Close)
	notifier, err := svc.buildNotifier(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sink, err := svc.buildSink(cfg)
	if err != nil {
		return nil, err
	}

	coord, err := dispatch.NewCoordinator(store, scorer, notifier, auth.NewRoleAuthorizer(), sink, logger.New("dispatch"), cfg.Dispatch)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}
	svc.Coordinator = coord

	if cfg.Seed.File != "" {
		if err := Seed(ctx, store, cfg.Seed.File, logg); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	svc.router = api.NewRouter(api.NewHandler(coord, store, svc.bus, logger.New("api")))
	return svc, nil
}

func (s *Service) buildStore(ctx context.Context, cfg *config.Config) (dispatch.Store, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		if err := pgstore.Migrate(cfg.Storage.DSN); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgstore.NewPool(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		s.log.Infof("using postgres storage")
		return pgstore.New(pool), nil
	default:
		s.log.Infof("using in-memory storage")
		return memstore.New(), nil
	}
}

func (s *Service) buildNotifier(ctx context.Context, cfg *config.Config) (events.Notifier, error) {
	notifiers := []events.Notifier{s.bus}
	if cfg.Redis.Enabled {
		client, err := notify.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		pub := notify.NewRedisPublisher(client, cfg.Redis.Channel)
		s.closers = append(s.closers, func() { _ = pub.Close() })
		notifiers = append(notifiers, pub)
	}
	if cfg.MQTT.Enabled {
		pub, err := notify.NewMQTTPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS)
		if err != nil {
			return nil, fmt.Errorf("mqtt: %w", err)
		}
		s.closers = append(s.closers, pub.Close)
		notifiers = append(notifiers, pub)
	}
	return notify.NewMulti(notifiers...), nil
}

func (s *Service) buildSink(cfg *config.Config) (coremetrics.Sink, error) {
	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.Influx.Enabled {
		ic := cfg.Metrics.Influx
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(ic.URL, ic.Token, ic.Org, ic.Bucket))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return metrics.NewMultiSink(sinks...), nil
	}
}

// Run serves the API and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}
