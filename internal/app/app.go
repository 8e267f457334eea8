// Package app assembles the portal's services from configuration.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wixxidevelop/blue/internal/admin"
	"github.com/wixxidevelop/blue/internal/config"
	"github.com/wixxidevelop/blue/internal/feed"
	"github.com/wixxidevelop/blue/internal/metrics"
	"github.com/wixxidevelop/blue/internal/repository"
	"github.com/wixxidevelop/blue/internal/session"
	"github.com/wixxidevelop/blue/internal/store"
	"github.com/wixxidevelop/blue/internal/workflow"
	"github.com/wixxidevelop/blue/pkg/circuit"
	"github.com/wixxidevelop/blue/pkg/messaging"
)

// App holds every long-lived dependency
type App struct {
	Config    *config.Config
	Store     *store.Store
	Settings  *repository.SettingsRepository
	System    *repository.SystemRepository
	Log       *repository.TransactionLog
	Workflow  *workflow.Service
	Admin     *admin.Service
	Feed      *feed.Hub
	Broker    *messaging.Client // nil without NATS_URL
	Publisher messaging.Publisher
}

// New opens the document store and event publisher and builds the services
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("document store: %s", backend.Kind())

	broker, err := OpenBroker(cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}
	hub := feed.NewHub(cfg.AllowedOrigins)
	publisher := OpenPublisher(cfg, broker, hub)

	s := store.New(backend)
	a := &App{
		Config:    cfg,
		Store:     s,
		Settings:  repository.NewSettingsRepository(s),
		System:    repository.NewSystemRepository(s),
		Log:       repository.NewTransactionLog(s),
		Feed:      hub,
		Broker:    broker,
		Publisher: publisher,
	}
	a.Workflow = workflow.NewService(a.Settings, a.System, a.Log, publisher)
	a.Admin = admin.NewService(s, a.Settings, a.System, a.Log, publisher)
	return a, nil
}

// Close releases the store and every publisher
func (a *App) Close() error {
	a.Publisher.Close()
	return a.Store.Close()
}

// OpenBackend selects the document store backend named in cfg
func OpenBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		return store.NewFileBackend(cfg.DataDir)
	case config.BackendPostgres:
		return store.NewPostgresBackend(ctx, cfg.DatabaseURL)
	case config.BackendMinio:
		return store.NewMinioBackend(ctx, store.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Prefix:    cfg.MinioPrefix,
			UseSSL:    cfg.MinioUseSSL,
		})
	case config.BackendEtcd:
		return store.NewEtcdBackend(ctx, cfg.EtcdEndpoints, cfg.EtcdPrefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// OpenBroker connects to NATS when NATS_URL is set and returns nil otherwise
func OpenBroker(cfg *config.Config) (*messaging.Client, error) {
	if cfg.NATSURL == "" {
		return nil, nil
	}
	client, err := messaging.NewClient(messaging.Config{
		URL:            cfg.NATSURL,
		Name:           "blue-portal",
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  60,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("publishing events to %s", cfg.NATSURL)
	return client, nil
}

// OpenPublisher combines the in-process publishers with the broker and
// InfluxDB when they are configured
func OpenPublisher(cfg *config.Config, broker *messaging.Client, local ...messaging.Publisher) messaging.Publisher {
	publishers := messaging.Fanout(local)
	if broker != nil {
		publishers = append(publishers, guard("nats", broker))
	}

	if cfg.InfluxURL != "" {
		log.Printf("recording event metrics in %s (bucket %s)", cfg.InfluxURL, cfg.InfluxBucket)
		publishers = append(publishers, guard("influx", metrics.NewInfluxSink(metrics.InfluxConfig{
			URL:    cfg.InfluxURL,
			Token:  cfg.InfluxToken,
			Org:    cfg.InfluxOrg,
			Bucket: cfg.InfluxBucket,
		})))
	}

	if len(publishers) == 0 {
		return messaging.NopPublisher{}
	}
	return publishers
}

func guard(name string, p messaging.Publisher) messaging.Publisher {
	return messaging.Guard(p, circuit.NewBreaker(circuit.Config{
		Name:        name,
		MaxFailures: 3,
		Cooldown:    30 * time.Second,
		OnStateChange: func(name string, from, to circuit.State) {
			log.Printf("%s publisher breaker %s -> %s", name, from, to)
		},
	}))
}

// OpenSessions selects the session store named in cfg
func OpenSessions(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.SessionBackend {
	case config.SessionMemory:
		return session.NewMemoryStore(cfg.SessionTTL), nil
	case config.SessionRedis:
		return session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
