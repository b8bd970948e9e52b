package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/kaia-invest/kaia-core/internal/config"
	"github.com/kaia-invest/kaia-core/internal/httpclient"
	"github.com/kaia-invest/kaia-core/internal/logging"
	"github.com/kaia-invest/kaia-core/internal/service"
	"github.com/kaia-invest/kaia-core/internal/session"
	"github.com/kaia-invest/kaia-core/internal/storage"
	"github.com/kaia-invest/kaia-core/internal/storage/file"
	"github.com/kaia-invest/kaia-core/internal/storage/memory"
	"github.com/kaia-invest/kaia-core/internal/storage/postgres"
	"github.com/kaia-invest/kaia-core/internal/storage/redis"
)

// Options overrides parts of the wiring. Zero values fall back to what the
// configuration selects.
type Options struct {
	// KV replaces the configured storage backend. The application does not
	// close a KV it did not open.
	KV      storage.KV
	Decoder session.TokenDecoder
	Logger  *logging.Logger
}

// Application ties the session store, the transport and the resource
// clients together and manages their lifecycle.
type Application struct {
	log    *logging.Logger
	kv     storage.KV
	ownsKV bool

	Config  *config.Config
	Session *session.Store
	Client  *httpclient.Client
	*service.Services
}

// New builds a fully wired application from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logging.New("kaia", cfg.Log.Level, cfg.Log.Format)
	}

	kv, owns := opts.KV, false
	if kv == nil {
		var err error
		if kv, err = OpenStorage(ctx, cfg.Storage); err != nil {
			return nil, err
		}
		owns = true
	}

	sess := session.New(kv, opts.Decoder, log)

	retry := httpclient.DefaultRetryConfig()
	retry.MaxRetries = cfg.API.MaxRetries
	client, err := httpclient.New(httpclient.Config{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.API.Timeout,
		Credentials:    sess,
		Logger:         log,
		RateLimit:      cfg.API.RateLimitRPS,
		Burst:          cfg.API.RateLimitBurst,
		Resilience:     cfg.API.Resilience,
		Retry:          retry,
		CircuitBreaker: httpclient.DefaultCircuitBreakerConfig(),
	})
	if err != nil {
		if owns {
			_ = storage.Close(kv)
		}
		return nil, fmt.Errorf("configure http client: %w", err)
	}

	log.WithFields(logrus.Fields{
		"base_url": cfg.API.BaseURL,
		"storage":  cfg.Storage.Backend,
		"fallback": cfg.AdminSettingsFallback,
	}).Debug("application wired")

	return &Application{
		log:      log,
		kv:       kv,
		ownsKV:   owns,
		Config:   cfg,
		Session:  sess,
		Client:   client,
		Services: service.New(client, sess, cfg.AdminSettingsFallback, log),
	}, nil
}

// OpenStorage opens the backend selected by cfg.
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (storage.KV, error) {
	switch cfg.Backend {
	case config.StorageMemory, "":
		return memory.New(), nil
	case config.StorageFile:
		kv, err := file.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		return kv, nil
	case config.StorageRedis:
		kv, err := redis.New(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		return kv, nil
	case config.StoragePostgres:
		kv, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Logger returns the application logger.
func (a *Application) Logger() *logging.Logger { return a.log }

// Start restores the persisted session.
func (a *Application) Start(ctx context.Context) session.State {
	return a.Session.Init(ctx)
}

// Stop releases the storage backend when the application opened it.
func (a *Application) Stop(ctx context.Context) error {
	if !a.ownsKV {
		return nil
	}
	if err := storage.Close(a.kv); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	a.log.WithContext(ctx).Debug("storage closed")
	return nil
}
