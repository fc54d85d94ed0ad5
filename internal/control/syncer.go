package control

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/vietddude/crmsync/internal/core/config"
	"github.com/vietddude/crmsync/internal/core/domain"
	"github.com/vietddude/crmsync/internal/infra/crm"
	"github.com/vietddude/crmsync/internal/infra/crm/servicenow"
	"github.com/vietddude/crmsync/internal/infra/kafka"
	redisclient "github.com/vietddude/crmsync/internal/infra/redis"
	"github.com/vietddude/crmsync/internal/infra/storage"
	"github.com/vietddude/crmsync/internal/infra/storage/memory"
	"github.com/vietddude/crmsync/internal/infra/storage/postgres"
	"github.com/vietddude/crmsync/internal/syncing/consume"
	"github.com/vietddude/crmsync/internal/syncing/delivery"
	"github.com/vietddude/crmsync/internal/syncing/health"
	"github.com/vietddude/crmsync/internal/syncing/idempotency"
	"github.com/vietddude/crmsync/internal/syncing/pipeline"
	"github.com/vietddude/crmsync/internal/syncing/transform"
)

// Syncer is the main application struct that owns the consumer loop and
// all its collaborators.
type Syncer struct {
	cfg          Config
	consumer     *kafka.Consumer
	dlqProducer  *kafka.DLQProducer
	loop         *consume.Loop
	guard        idempotency.Guard
	archive      storage.DeadLetterArchive
	db           *postgres.DB
	redisGuard   *redisclient.Guard
	healthMon    *health.Monitor
	healthServer *health.Server
	log          *slog.Logger

	loopDone chan error
}

// Config holds the application configuration.
type Config struct {
	Port        int
	Broker      config.BrokerConfig
	Provider    config.ProviderConfig
	Retry       config.RetryConfig
	Idempotency config.IdempotencyConfig
	Redis       redisclient.Config
	Database    postgres.Config
}

// NewSyncer creates a new Syncer instance with all dependencies initialized.
func NewSyncer(cfg Config) (*Syncer, error) {
	log := slog.Default()

	// 1. Initialize Storage
	var db *postgres.DB
	var archive storage.DeadLetterArchive

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate("migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		archive = postgres.NewDeadLetterRepo(db)
		slog.Info("Using PostgreSQL dead-letter archive")
	} else {
		archive = memory.NewDeadLetterArchive()
		slog.Info("Using in-memory dead-letter archive")
	}

	// 2. Initialize Idempotency Guard
	var guard idempotency.Guard
	var redisGuard *redisclient.Guard

	switch cfg.Idempotency.Backend {
	case "redis":
		var err error
		redisGuard, err = redisclient.NewGuard(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis guard: %w", err)
		}
		guard = redisGuard
		slog.Info("Using Redis idempotency guard")
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres idempotency backend requires database.url")
		}
		guard = postgres.NewGuardRepo(db)
		slog.Info("Using PostgreSQL idempotency guard")
	default:
		guard = idempotency.NewMemoryGuard()
		slog.Info("Using in-memory idempotency guard")
	}

	// 3. Transformers
	registry := transform.NewRegistry()
	servicenow.NewTransformer(cfg.Provider.TablePath).RegisterAll(registry)

	// 4. Delivery Client
	provider := crm.NewClient(
		cfg.Provider.BaseURL,
		cfg.Provider.Username,
		cfg.Provider.Password,
		cfg.Provider.Timeout,
	)
	policy := delivery.BackoffPolicy{
		Base:           cfg.Retry.BackoffBase,
		Cap:            cfg.Retry.BackoffCap,
		JitterFraction: cfg.Retry.JitterFraction,
	}
	if policy.JitterFraction > 0 {
		policy.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	deliverer := delivery.NewClient(provider, policy, cfg.Retry.MaxAttempts, cfg.Provider.Timeout, log)

	// 5. Health Monitoring
	healthMon := health.NewMonitor()
	healthServer := health.NewServer(healthMon, cfg.Port)

	if redisGuard != nil {
		healthMon.Register("idempotency_store", true, redisGuard.Health)
	}
	if db != nil {
		healthMon.Register("database", cfg.Idempotency.Backend == "postgres", db.Health)
	}

	// 6. Consumer Loop
	processor := pipeline.NewProcessor(guard, registry, deliverer, log)
	consumer := kafka.NewConsumer(cfg.Broker.Brokers, cfg.Broker.Topic, cfg.Broker.GroupID, log)
	dlqProducer := kafka.NewDLQProducer(cfg.Broker.Brokers, cfg.Broker.DLQTopic, log)

	dlq := &archivingDLQ{producer: dlqProducer, archive: archive, log: log}
	tracked := &livenessProcessor{inner: processor, mon: healthMon}
	loop := consume.NewLoop(consumer, dlq, tracked, log)

	return &Syncer{
		cfg:          cfg,
		consumer:     consumer,
		dlqProducer:  dlqProducer,
		loop:         loop,
		guard:        guard,
		archive:      archive,
		db:           db,
		redisGuard:   redisGuard,
		healthMon:    healthMon,
		healthServer: healthServer,
		log:          log,
		loopDone:     make(chan error, 1),
	}, nil
}

// Start starts the syncer and all its components.
func (s *Syncer) Start(ctx context.Context) error {
	// Start Health Server
	go func() {
		if err := s.healthServer.Start(); err != nil {
			s.log.Error("Health server failed", "error", err)
		}
	}()

	// Start Consumer Loop
	go func() {
		s.log.Info("Starting consumer loop",
			"topic", s.cfg.Broker.Topic,
			"group", s.cfg.Broker.GroupID,
			"dlq_topic", s.cfg.Broker.DLQTopic,
		)
		err := s.loop.Run(ctx)
		if err != nil {
			s.log.Error("Consumer loop stopped", "error", err)
		}
		s.loopDone <- err
	}()

	return nil
}

// Wait blocks until the consumer loop exits and returns its error.
func (s *Syncer) Wait() error {
	return <-s.loopDone
}

// Stop stops the syncer.
func (s *Syncer) Stop(ctx context.Context) error {
	s.log.Info("Stopping Syncer...")

	if err := s.consumer.Close(); err != nil {
		s.log.Warn("Failed to close consumer", "error", err)
	}
	if err := s.dlqProducer.Close(); err != nil {
		s.log.Warn("Failed to close DLQ producer", "error", err)
	}
	if s.redisGuard != nil {
		if err := s.redisGuard.Close(); err != nil {
			s.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("Failed to close database", "error", err)
		}
	}

	// Stop Health Server
	return s.healthServer.Stop(ctx)
}

// archivingDLQ publishes dead letters to the quarantine topic and
// mirrors them into the archive. The topic publish is the durability
// boundary: its failure propagates so the source offset is not
// committed. Archive failures only log, the letter is already
// quarantined on the topic.
type archivingDLQ struct {
	producer consume.DeadLetterPublisher
	archive  storage.DeadLetterArchive
	log      *slog.Logger
}

func (d *archivingDLQ) Publish(ctx context.Context, letter *domain.DeadLetter) error {
	if err := d.producer.Publish(ctx, letter); err != nil {
		return err
	}
	if err := d.archive.Add(ctx, letter); err != nil {
		d.log.Warn("Failed to archive dead letter",
			"dead_letter_id", letter.ID,
			"error", err,
		)
	}
	return nil
}

// livenessProcessor forwards to the real processor and records each
// terminal result with the health monitor.
type livenessProcessor struct {
	inner consume.EventProcessor
	mon   *health.Monitor
}

func (p *livenessProcessor) Process(ctx context.Context, ev *domain.Event) domain.ProcessingResult {
	result := p.inner.Process(ctx, ev)
	p.mon.RecordEvent()
	return result
}
