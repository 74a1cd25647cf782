// Package app wires configuration, storage clients and the dispatch engine
// together for the worker manager and the operator CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"technician-dispatch/internal/api"
	"technician-dispatch/internal/audit"
	"technician-dispatch/internal/common/aws"
	"technician-dispatch/internal/common/config"
	"technician-dispatch/internal/common/database"
	apperrors "technician-dispatch/internal/common/errors"
	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/dispatch"
	"technician-dispatch/internal/notification"
	"technician-dispatch/internal/store"
)

type App struct {
	Config        *config.Config
	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient
	Engine        *dispatch.Engine

	logger logger.Logger
}

// Options tune how hard New tries to reach dependencies. The CLI uses a
// single attempt, the long-running manager waits for containers to come up.
type Options struct {
	Attempts     int
	InitialDelay time.Duration
}

var ServiceOptions = Options{Attempts: 15, InitialDelay: 2 * time.Second}

var CLIOptions = Options{Attempts: 1}

func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, logger: log}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	a.Postgres = pg
	if err := retryWithBackoff(ctx, pg.Ping, opts, log, "PostgreSQL connection"); err != nil {
		a.Close()
		return nil, apperrors.NewDatabaseConnectionFailedError(err).WithCause(err)
	}

	a.Redis = database.NewRedis(cfg.Database.Redis)
	if err := retryWithBackoff(ctx, a.Redis.Ping, opts, log, "Redis connection"); err != nil {
		a.Close()
		return nil, err
	}

	var recorder dispatch.DecisionRecorder = audit.NopRecorder{}
	if cfg.Audit.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := retryWithBackoff(ctx, es.Ping, opts, log, "Elasticsearch connection"); err != nil {
			a.Close()
			return nil, err
		}
		a.Elasticsearch = es

		esRecorder := audit.NewElasticsearchRecorder(es.Client, cfg.Audit.Index, log)
		if err := esRecorder.EnsureIndex(ctx); err != nil {
			log.Warn("audit index not ready, decisions may fail to index", map[string]interface{}{
				"index": cfg.Audit.Index,
				"error": err.Error(),
			})
		}
		recorder = esRecorder
	}

	notifier, err := newNotifier(ctx, cfg, pg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	d := cfg.Dispatch
	contacts := store.NewContactResolver(
		pg.DB,
		a.Redis.Client,
		config.GetDuration(d.ContactCacheTTL),
		d.ContactCachePrefix,
		log,
	)

	a.Engine = dispatch.NewEngine(
		store.NewRequestStore(pg.DB, log),
		store.NewTechnicianDirectory(pg.DB, log),
		contacts,
		notifier,
		dispatch.PolicyFromConfig(d),
		log,
		dispatch.WithDecisionRecorder(recorder),
	)
	return a, nil
}

func newNotifier(ctx context.Context, cfg *config.Config, pg *database.PostgresClient, log logger.Logger) (*notification.Notifier, error) {
	n := cfg.Notifications
	ncfg := notification.Config{
		InAppEnabled: n.InApp.Enabled,
		EmailEnabled: n.Email.Enabled,
		SMSEnabled:   n.SMS.Enabled,
		FromEmail:    n.Email.FromEmail,
		SMSSenderID:  n.SMS.SenderID,
	}

	if !n.Email.Enabled && !n.SMS.Enabled {
		return notification.NewNotifier(ncfg, pg.DB, nil, nil, log), nil
	}

	clients, err := aws.NewClients(ctx, n.AWS.Region)
	if err != nil {
		return nil, err
	}
	return notification.NewNotifier(ncfg, pg.DB, clients.SES, clients.SNS, log), nil
}

// Checks lists readiness probes for every connected dependency.
func (a *App) Checks() []api.Check {
	checks := []api.Check{
		{Name: "postgres", Ping: a.Postgres.Ping},
		{Name: "redis", Ping: a.Redis.Ping},
	}
	if a.Elasticsearch != nil {
		checks = append(checks, api.Check{Name: "elasticsearch", Ping: a.Elasticsearch.Ping})
	}
	return checks
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("redis close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.Postgres != nil {
		if err := a.Postgres.Close(); err != nil {
			a.logger.Warn("postgres close failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// retryWithBackoff runs op until it succeeds, doubling the delay between
// attempts.
func retryWithBackoff(ctx context.Context, op func(context.Context) error, opts Options, log logger.Logger, name string) error {
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := opts.InitialDelay

	var err error
	for i := 0; i < attempts; i++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		log.Warn(name+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     i + 1,
			"maxAttempts": attempts,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", name, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}
