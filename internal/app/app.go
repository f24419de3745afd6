// Package app assembles the registry's services from configuration. Both the
// server and the operator CLI build from here so they share one wiring.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	craftHandler "owndrob/internal/craft/handler"
	craftMetrics "owndrob/internal/craft/metrics"
	craftService "owndrob/internal/craft/service"
	craftStore "owndrob/internal/craft/store"
	lqHandler "owndrob/internal/livequery/handler"
	lqService "owndrob/internal/livequery/service"
	oathHandler "owndrob/internal/oath/handler"
	"owndrob/internal/oath/lockout"
	oathService "owndrob/internal/oath/service"
	identityStore "owndrob/internal/oath/store/identity"
	lockoutStore "owndrob/internal/oath/store/lockout"
	sessionStore "owndrob/internal/oath/store/session"
	"owndrob/internal/objectstore"
	objectmemory "owndrob/internal/objectstore/memory"
	"owndrob/internal/objectstore/pinata"
	ownHandler "owndrob/internal/ownership/handler"
	ownMetrics "owndrob/internal/ownership/metrics"
	"owndrob/internal/ownership/reconciler"
	ownService "owndrob/internal/ownership/service"
	"owndrob/internal/ownership/soldout"
	ownStore "owndrob/internal/ownership/store"
	"owndrob/internal/platform/config"
	"owndrob/internal/platform/metrics"
	"owndrob/internal/platform/postgres"
	redisclient "owndrob/internal/platform/redis"
	httptransport "owndrob/internal/transport/http"
	"owndrob/pkg/platform/audit"
	"owndrob/pkg/platform/audit/publishers/compliance"
	kafkapublisher "owndrob/pkg/platform/audit/publishers/kafka"
	auditmemory "owndrob/pkg/platform/audit/store/memory"
	auditpg "owndrob/pkg/platform/audit/store/postgres"
)

const sessionCleanupInterval = 10 * time.Minute

// claimStore is what both ownership stores provide.
type claimStore interface {
	ownService.ClaimStore
	reconciler.PendingLister
	ClaimedContentIDs(ctx context.Context, claimant string) ([]string, error)
}

// App holds the constructed services and the resources they own.
type App struct {
	Config     config.Server
	Logger     *slog.Logger
	DB         *sql.DB
	Redis      *redisclient.Client
	Objects    objectstore.Store
	Audit      audit.Publisher
	AuditStore audit.Store
	Crafts     *craftService.Service
	Ownership  *ownService.Service
	Oath       *oathService.Service
	LiveQuery  *lqService.Service
	Reconciler *reconciler.Reconciler

	sessionCleanup func(ctx context.Context) error
	closers        []func() error
}

// Build connects to the configured backends and wires every service. An
// empty DATABASE_URL selects in-memory stores.
func Build(ctx context.Context, cfg config.Server, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)
	}

	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		a.Redis = rc
		a.closers = append(a.closers, rc.Close)
	}

	identities, sessions, err := a.buildIdentityStores()
	if err != nil {
		return nil, err
	}
	if a.Objects, err = a.buildObjectStore(); err != nil {
		return nil, err
	}
	if a.Audit, err = a.buildAudit(); err != nil {
		return nil, err
	}

	var crafts craftService.CraftStore
	var claims claimStore
	if a.DB != nil {
		crafts = craftStore.NewPostgres(a.DB)
		claims = ownStore.NewPostgres(a.DB)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory registry stores")
		crafts = craftStore.NewInMemoryStore()
		claims = ownStore.NewInMemoryStore()
	}

	a.Crafts, err = craftService.New(crafts, a.Objects,
		craftService.WithLogger(logger),
		craftService.WithAuditPublisher(a.Audit),
		craftService.WithMetrics(craftMetrics.New()),
		craftService.WithClaimIndex(claims),
		craftService.WithUpstreamTimeout(cfg.ObjectStore.Timeout),
	)
	if err != nil {
		return nil, err
	}

	var marker ownService.SoldOutCache = soldout.NewMemory()
	if a.Redis != nil {
		marker = soldout.NewRedis(a.Redis.Client)
	}
	ownershipMetrics := ownMetrics.New()
	a.Ownership, err = ownService.New(claims, crafts, a.Objects,
		ownService.WithLogger(logger),
		ownService.WithAuditPublisher(a.Audit),
		ownService.WithMetrics(ownershipMetrics),
		ownService.WithSoldOutCache(marker),
		ownService.WithUpstreamTimeout(cfg.ObjectStore.Timeout),
		ownService.WithWriteTimeout(cfg.Admission.WriteTimeout),
	)
	if err != nil {
		return nil, err
	}

	a.Reconciler, err = reconciler.New(claims, crafts, a.Ownership,
		reconciler.WithLogger(logger),
		reconciler.WithMetrics(ownershipMetrics),
		reconciler.WithInterval(cfg.Mirror.Interval),
		reconciler.WithBatchSize(cfg.Mirror.BatchSize),
	)
	if err != nil {
		return nil, err
	}

	var lockouts lockout.Store = lockoutStore.New()
	if a.DB != nil {
		lockouts = lockoutStore.NewPostgres(a.DB)
	}
	limiter, err := lockout.New(lockouts,
		lockout.WithLogger(logger),
		lockout.WithAuditPublisher(a.Audit),
		lockout.WithPolicy(lockout.Policy{
			Attempts:     cfg.Lockout.Attempts,
			Window:       cfg.Lockout.Window,
			LockDuration: cfg.Lockout.Duration,
		}),
	)
	if err != nil {
		return nil, err
	}
	a.Oath, err = oathService.New(identities, sessions,
		oathService.WithLogger(logger),
		oathService.WithAuditPublisher(a.Audit),
		oathService.WithSessionTTL(cfg.SessionTTL),
		oathService.WithLockout(limiter),
	)
	if err != nil {
		return nil, err
	}

	a.LiveQuery, err = lqService.New(a.Objects, cfg.ObjectStore.GatewayURL,
		lqService.WithLogger(logger),
		lqService.WithUpstreamTimeout(cfg.ObjectStore.Timeout),
	)
	if err != nil {
		return nil, err
	}

	ok = true
	return a, nil
}

func (a *App) buildObjectStore() (objectstore.Store, error) {
	cfg := a.Config.ObjectStore
	switch cfg.Backend {
	case config.ObjectStoreMemory:
		a.Logger.Warn("using in-memory object store; published objects are not durable")
		return objectmemory.New(), nil
	case config.ObjectStorePinata:
		client, err := pinata.New(cfg.JWT,
			pinata.WithAPIURL(cfg.APIURL),
			pinata.WithUploadsURL(cfg.UploadsURL),
			pinata.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			pinata.WithLogger(a.Logger),
			pinata.WithMetrics(pinata.NewMetrics()),
		)
		if err != nil {
			return nil, fmt.Errorf("pinata client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown object store backend %q", cfg.Backend)
	}
}

// buildAudit streams every event to Kafka, or to the log when no broker is
// configured, and persists registry and security events to the audit store.
func (a *App) buildAudit() (audit.Publisher, error) {
	if a.DB != nil {
		a.AuditStore = auditpg.New(a.DB)
	} else {
		a.AuditStore = auditmemory.NewInMemoryStore()
	}
	durable := compliance.New(a.AuditStore,
		compliance.WithLogger(a.Logger),
		compliance.WithMetrics(compliance.NewMetrics()),
	)

	if len(a.Config.Audit.Brokers) == 0 {
		return audit.Multi{audit.NewLogPublisher(a.Logger), durable}, nil
	}
	p, err := kafkapublisher.New(a.Config.Audit.Brokers, a.Config.Audit.Topic)
	if err != nil {
		return nil, fmt.Errorf("audit publisher: %w", err)
	}
	a.closers = append(a.closers, p.Close)
	return audit.Multi{p, durable}, nil
}

func (a *App) buildIdentityStores() (oathService.IdentityStore, oathService.SessionStore, error) {
	var identities oathService.IdentityStore = identityStore.NewInMemoryStore()
	if a.DB != nil {
		identities = identityStore.NewPostgres(a.DB)
	}

	switch a.Config.SessionStore {
	case config.SessionStoreRedis:
		if a.Redis == nil {
			return nil, nil, errors.New("SESSION_STORE=redis requires REDIS_URL")
		}
		return identities, sessionStore.NewRedis(a.Redis.Client), nil
	case config.SessionStorePostgres:
		if a.DB != nil {
			pg := sessionStore.NewPostgres(a.DB)
			a.sessionCleanup = func(ctx context.Context) error {
				for {
					err := pg.StartCleanup(ctx, sessionCleanupInterval)
					if ctx.Err() != nil {
						return ctx.Err()
					}
					a.Logger.WarnContext(ctx, "session cleanup pass failed", "error", err)
				}
			}
			return identities, pg, nil
		}
		a.Logger.Warn("postgres session store requested without DATABASE_URL, using memory")
		return identities, sessionStore.New(), nil
	case config.SessionStoreMemory:
		return identities, sessionStore.New(), nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", a.Config.SessionStore)
	}
}

// Router builds the HTTP handler for the server.
func (a *App) Router(m *metrics.Metrics) http.Handler {
	var ownOpts []ownHandler.Option
	if a.Config.RequireSession {
		ownOpts = append(ownOpts, ownHandler.WithOwnerKeys(a.ownerKey))
	}
	deps := httptransport.Deps{
		Logger:         a.Logger,
		Metrics:        m,
		CORSOrigin:     a.Config.CORSOrigin,
		RequestTimeout: a.Config.RequestTimeout,
		Routes: []httptransport.Registrar{
			oathHandler.New(a.Oath, a.Logger, a.Config.SecureCookie),
			lqHandler.New(a.LiveQuery, a.Logger),
		},
		SessionRoutes: []httptransport.Registrar{
			craftHandler.New(a.Crafts, a.Logger),
			ownHandler.New(a.Ownership, a.Logger, ownOpts...),
		},
		Health: map[string]httptransport.HealthCheck{},
	}
	if a.Config.RequireSession {
		deps.Sessions = a.Oath
	}
	if a.DB != nil {
		deps.Health["postgres"] = a.DB.PingContext
	}
	if a.Redis != nil {
		deps.Health["redis"] = a.Redis.Health
	}
	return httptransport.NewRouter(deps)
}

func (a *App) ownerKey(ctx context.Context, nickname string) (string, error) {
	profile, err := a.Oath.LookupUser(ctx, nickname)
	if err != nil {
		return "", err
	}
	return profile.PublicKey, nil
}

// SessionCleanup returns the background session sweeper, or nil when the
// session backend expires entries itself.
func (a *App) SessionCleanup() func(ctx context.Context) error {
	return a.sessionCleanup
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
