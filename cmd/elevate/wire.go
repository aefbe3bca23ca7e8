package main

import (
	"context"
	"fmt"
	"time"

	"github.com/elevate-hub/elevate/config"
	"github.com/elevate-hub/elevate/internal/application/command"
	"github.com/elevate-hub/elevate/internal/application/query"
	"github.com/elevate-hub/elevate/internal/domain/account"
	"github.com/elevate-hub/elevate/internal/domain/report"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/internal/infrastructure/backup"
	"github.com/elevate-hub/elevate/internal/infrastructure/export/pdf"
	"github.com/elevate-hub/elevate/internal/infrastructure/export/sessioncsv"
	"github.com/elevate-hub/elevate/internal/infrastructure/export/xlsx"
	"github.com/elevate-hub/elevate/internal/infrastructure/persistence/file"
	"github.com/elevate-hub/elevate/internal/infrastructure/persistence/postgres"
	"github.com/elevate-hub/elevate/internal/infrastructure/persistence/redis"
	"github.com/elevate-hub/elevate/internal/infrastructure/security"
	"github.com/elevate-hub/elevate/internal/interface/cli"
	"github.com/elevate-hub/elevate/pkg/circuitbreaker"
	"github.com/elevate-hub/elevate/pkg/logger"
	"github.com/elevate-hub/elevate/pkg/retry"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// WIRING
// ══════════════════════════════════════════════════════════════════════════════

// dependencies are the assembled use cases plus whatever must be closed on
// shutdown.
type dependencies struct {
	Handlers cli.Handlers
	closers  []func()
}

// Close releases resources in reverse order of acquisition.
func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// stores are the persistence ports chosen by STORAGE_DRIVER.
type stores struct {
	sessions study.Repository
	accounts account.Repository
}

// cacheDeps are the Redis-backed adapters. Both interfaces stay nil without
// Redis so the handlers skip caching entirely.
type cacheDeps struct {
	dashboard   query.DashboardCache
	invalidator command.DashboardInvalidator
	locker      study.Locker
}

func wire(ctx context.Context, cfg *config.Config, clock timeutil.Clock, log *logger.Logger) (*dependencies, error) {
	deps := &dependencies{}

	policy, err := study.NewXPPolicy(cfg.Gamification.BaseXPPerMinute, cfg.Gamification.Multipliers)
	if err != nil {
		return nil, fmt.Errorf("xp policy: %w", err)
	}

	caches := openRedis(ctx, cfg.Redis, log, deps)

	st, err := openStorage(ctx, cfg, clock, caches.locker, log, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}

	sink, err := openBackupSink(ctx, cfg.Backup)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("backup sink: %w", err)
	}

	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	aggregator := report.NewAggregator(report.DefaultConfig())

	deps.Handlers = cli.Handlers{
		Signup:        command.NewSignupHandler(st.accounts, hasher, clock),
		Login:         command.NewLoginHandler(st.accounts, hasher),
		LogSession:    command.NewLogSessionHandler(st.sessions, policy, clock, caches.invalidator),
		DeleteAccount: command.NewDeleteAccountHandler(st.accounts, st.sessions, hasher, caches.invalidator),
		Backup:        command.NewBackupHandler(st.sessions, sink, sessioncsv.Marshal, backup.Name, clock),

		Dashboard:  query.NewGetDashboardHandler(st.sessions, policy, clock, caches.dashboard),
		Report:     query.NewGetReportHandler(st.sessions, aggregator, pdf.NewRenderer(clock), clock),
		Export:     query.NewExportSessionsHandler(st.sessions, exportEncoders()),
		Weaknesses: query.NewAnalyzeWeaknessesHandler(st.sessions, aggregator),
		Users:      query.NewListUsersHandler(st.accounts),
	}
	return deps, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Storage
// ─────────────────────────────────────────────────────────────────────────────

func openStorage(
	ctx context.Context,
	cfg *config.Config,
	clock timeutil.Clock,
	locker study.Locker,
	log *logger.Logger,
	deps *dependencies,
) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		conn, err := postgres.NewConnection(ctx, postgresConfig(cfg.Database), retry.ConnectRetrier(retryLogger(log, "postgres")))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		deps.closers = append(deps.closers, func() {
			log.Info("closing database connection")
			conn.Close()
		})
		log.Info("database connection established")

		if cfg.Database.AutoMigrate {
			migrator := postgres.NewMigrator(conn)
			if err := migrator.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			logMigrationStatus(ctx, migrator, log)
		}

		return &stores{
			sessions: postgres.NewSessionRepository(conn, clock.Now),
			accounts: postgres.NewAccountRepository(conn),
		}, nil

	default:
		layout := file.Layout{Dir: cfg.Storage.DataDir}
		if err := layout.Ensure(); err != nil {
			return nil, err
		}
		log.Info("using file storage", logger.Path(layout.Dir))
		return &stores{
			sessions: file.NewSessionStore(layout, locker, clock.Now),
			accounts: file.NewAccountStore(layout, locker),
		}, nil
	}
}

func postgresConfig(c config.DatabaseConfig) postgres.Config {
	return postgres.Config{
		URL:             c.URL,
		Host:            c.Host,
		Port:            c.Port,
		Database:        c.Name,
		User:            c.User,
		Password:        c.Password,
		SSLMode:         c.SSLMode,
		MaxConns:        int32(c.MaxConns),
		MinConns:        int32(c.MinConns),
		MaxConnLifetime: c.ConnMaxLifetime,
		MaxConnIdleTime: c.ConnMaxIdleTime,
		ConnectTimeout:  c.ConnectTimeout,
	}
}

func logMigrationStatus(ctx context.Context, migrator *postgres.Migrator, log *logger.Logger) {
	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", logger.Err(err))
		return
	}
	applied := 0
	for _, m := range status {
		if m.IsApplied {
			applied++
		}
	}
	log.Info("migrations completed", logger.Int("applied", applied), logger.Int("total", len(status)))
}

// ─────────────────────────────────────────────────────────────────────────────
// Redis (optional)
// ─────────────────────────────────────────────────────────────────────────────

// openRedis connects when enabled. A failed connection is logged and the
// application continues without cache and without the cross-process lock.
func openRedis(ctx context.Context, c config.RedisConfig, log *logger.Logger, deps *dependencies) cacheDeps {
	none := cacheDeps{locker: study.NopLocker{}}
	if !c.Enabled {
		return none
	}

	cache, err := redis.NewCache(ctx, redis.Config{
		Host:         c.Host,
		Port:         c.Port,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		KeyPrefix:    c.KeyPrefix,
	}, retry.ConnectRetrier(retryLogger(log, "redis")))
	if err != nil {
		log.Warn("redis unavailable, continuing without cache", logger.Err(err))
		return none
	}
	deps.closers = append(deps.closers, func() {
		if err := cache.Close(); err != nil {
			log.Warn("closing redis failed", logger.Err(err))
		}
	})
	log.Info("redis connection established")

	breaker := circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			logger.Component(name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}, redis.BreakerIsFailure)
	dashboard := redis.NewDashboardCache(cache, breaker, log)
	lockCfg := redis.DefaultLockConfig()
	lockCfg.TTL, lockCfg.Wait = c.LockTTL, c.LockWait

	return cacheDeps{
		dashboard:   dashboard,
		invalidator: dashboard,
		locker:      redis.NewLocker(cache, lockCfg),
	}
}

func retryLogger(log *logger.Logger, target string) func(int, error, time.Duration) {
	return func(attempt int, err error, delay time.Duration) {
		log.Warn("connection attempt failed",
			logger.Component(target),
			logger.Int("attempt", attempt),
			logger.Duration("retry_in", delay),
			logger.Err(err),
		)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Exports and backups
// ─────────────────────────────────────────────────────────────────────────────

func exportEncoders() map[query.ExportFormat]query.ExportEncoder {
	return map[query.ExportFormat]query.ExportEncoder{
		query.FormatCSV: func(sessions []study.Session, _ []report.SubjectStats) ([]byte, error) {
			return sessioncsv.Marshal(sessions)
		},
		query.FormatXLSX: xlsx.Encode,
	}
}

func openBackupSink(ctx context.Context, c config.BackupConfig) (command.BackupSink, error) {
	if c.Driver != config.BackupS3 {
		return backup.NewLocalSink(c.Dir), nil
	}
	return backup.NewS3Sink(ctx, backup.S3Config{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		Prefix:       c.S3Prefix,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		PathStyle:    c.S3PathStyle,
	})
}
