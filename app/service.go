// Package app wires configuration, storage, the run manager and the
// outbound adapters into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/api"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/config"
	corecatalog "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/catalog"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/events"
	coremetrics "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/metrics"
	coremon "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/monitoring"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/run"
	corestore "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/artifacts"
	infcatalog "github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/catalog"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/elevation"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/logger"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/metrics"
	infmon "github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/monitoring"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/mqtt"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/runstatus"
	_ "github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/store"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/internal/eventbus"
)

// busBuffer is the per-subscriber buffer of the run event bus.
const busBuffer = 256

// Service holds the long-lived components of the planner.
type Service struct {
	cfg *config.Config
	log logger.Logger

	Catalog *corecatalog.MemoryCatalog
	Store   corestore.SolutionStore
	Manager *run.Manager
	Bus     *eventbus.TypedBus[events.RunEvent]

	remote    *eventbus.TypedBus[events.RunEvent]
	redis     *runstatus.RedisRegistry
	relay     *runstatus.Relay
	journal   *artifacts.Journal
	mqtt      *mqtt.PahoClient
	publisher *mqtt.EventPublisher
	sink      coremetrics.MetricsSink
	elevation *elevation.Client

	startOnce sync.Once
	cancel    context.CancelFunc
}

// New builds a Service from cfg. Nothing runs until Start.
func New(ctx context.Context, cfg *config.Config) (svc *Service, err error) {
	if err := logger.Configure(logger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	mon, err := infmon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	s := &Service{cfg: cfg, log: logger.New("service")}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	if s.Catalog, err = infcatalog.Open(cfg.Catalog.Path, cfg.Zones.Vertices); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	st, err := corestore.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("solution store: %w", err)
	}
	s.Store = corestore.Instrument(st, cfg.Store.Type, s.sink)

	var reg run.StatusRegistry
	if cfg.RunStatus.Backend == "redis" {
		s.redis, err = runstatus.NewRedisRegistry(ctx, cfg.RunStatus.URL, cfg.RunStatus.Prefix, cfg.RunStatus.TTL)
		if err != nil {
			return nil, fmt.Errorf("run status registry: %w", err)
		}
		reg = s.redis
		if cfg.RunStatus.Relay {
			s.relay = runstatus.NewRelay(s.redis.Client(), cfg.RunStatus.Channel, uuid.NewString(), logger.New("relay"))
			s.remote = eventbus.NewTypedSize[events.RunEvent](busBuffer)
		}
	}

	s.Bus = eventbus.NewTypedSize[events.RunEvent](busBuffer)
	s.Manager, err = run.NewManager(s.Catalog, s.Store, reg, run.Config{
		MaxConcurrent: cfg.Optimizer.MaxConcurrent,
		Energy:        cfg.Energy,
		AllPhases:     cfg.MQTT.Progress || cfg.Artifacts.JournalProgress,
	}, logger.New("run"))
	if err != nil {
		return nil, err
	}
	s.Manager.SetBus(s.Bus)
	if cfg.Artifacts.Dir != "" {
		fw, err := artifacts.NewFrontWriter(cfg.Artifacts.Dir)
		if err != nil {
			return nil, fmt.Errorf("artifacts: %w", err)
		}
		s.Manager.SetArtifacts(fw)
	}
	if cfg.Artifacts.Journal != "" {
		s.journal, err = artifacts.NewJournal(artifacts.JournalConfig{
			Path:       cfg.Artifacts.Journal,
			MaxSizeMB:  cfg.Artifacts.MaxSizeMB,
			MaxBackups: cfg.Artifacts.MaxBackups,
			MaxAgeDays: cfg.Artifacts.MaxAgeDays,
			Progress:   cfg.Artifacts.JournalProgress,
		})
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	if cfg.MQTT.Enabled() {
		s.mqtt, err = mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.publisher = mqtt.NewEventPublisher(s.mqtt, cfg.MQTT, logger.New("mqtt_publisher"))
	}
	if cfg.Elevation.URL != "" {
		s.elevation = elevation.NewClient(cfg.Elevation, logger.New("elevation"))
	}
	return s, nil
}

// Start launches the event consumers. It is idempotent.
func (s *Service) Start(ctx context.Context) error {
	var err error
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		metrics.StartEventCollector(ctx, s.Bus, s.sink, s.cfg.Metrics.GenerationEvery, logger.New("metrics"))
		if s.journal != nil {
			s.journal.Follow(ctx, s.Bus)
		}
		if s.publisher != nil {
			go s.publisher.Run(ctx, s.Bus)
			s.mqtt.OnCancel(func(processID string) {
				if err := s.Manager.Cancel(ctx, processID); err != nil {
					s.log.Warnf("remote cancel of run %s: %v", processID, err)
				}
			})
		}
		if s.relay != nil {
			go s.relay.Forward(ctx, s.Bus)
			if err = s.relay.Receive(ctx, s.remote); err != nil {
				err = fmt.Errorf("event relay: %w", err)
			}
		}
	})
	return err
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	return api.NewRouter(s.cfg.Server, api.Deps{
		Manager:   s.Manager,
		Store:     s.Store,
		Catalog:   s.Catalog,
		Bus:       s.Bus,
		Remote:    s.remote,
		Elevation: s.elevationSource(),
		Defaults:  s.cfg.Optimizer.Request(),
		Metrics:   s.promEnabled(),
		Log:       logger.New("api"),
	})
}

// Run starts the consumers and serves HTTP until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	return api.NewServer(s.cfg.Server, s.Handler(), logger.New("http")).Run(ctx)
}

// Close stops the runs and releases every resource.
func (s *Service) Close() error {
	var errs []error
	if s.Manager != nil {
		errs = append(errs, s.Manager.Close())
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.Bus != nil {
		s.Bus.Close()
	}
	if s.remote != nil {
		s.remote.Close()
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}

// Elevation returns the elevation client, nil when disabled.
func (s *Service) Elevation() *elevation.Client { return s.elevation }

func (s *Service) elevationSource() api.ElevationSource {
	if s.elevation == nil {
		return nil
	}
	return s.elevation
}

func (s *Service) promEnabled() bool {
	for _, c := range s.cfg.Metrics.Sinks {
		if c.Type == "prometheus" {
			return true
		}
	}
	return false
}
