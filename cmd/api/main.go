// @title                       AutoTrade VIP API
// @version                     1.0
// @description                 Account registration, authentication and user administration for the AutoTrade VIP platform.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/autotradevip/atv-backend/internal/api"
	"github.com/autotradevip/atv-backend/internal/core/ports"
	"github.com/autotradevip/atv-backend/internal/core/service"
	"github.com/autotradevip/atv-backend/internal/infrastructure/db/mongo"
	"github.com/autotradevip/atv-backend/internal/infrastructure/db/postgres"
	"github.com/autotradevip/atv-backend/internal/infrastructure/db/redis"
	"github.com/autotradevip/atv-backend/internal/infrastructure/http/handlers"
	"github.com/autotradevip/atv-backend/internal/infrastructure/messaging/kafka"
	"github.com/autotradevip/atv-backend/internal/infrastructure/queue"
	"github.com/autotradevip/atv-backend/internal/infrastructure/scheduler"
	"github.com/autotradevip/atv-backend/internal/infrastructure/security"
	"github.com/autotradevip/atv-backend/internal/pkg/config"
	"github.com/autotradevip/atv-backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
		File:   cfg.LogFile,
	})
	if envErr != nil {
		log.Debug().Msg(".env file not found, using environment variables")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped with error")
	}
}

// store bundles the repositories of the selected backend.
type store struct {
	users ports.UserRepository
	audit ports.AuditRepository
	check handlers.Check
	close func()
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	checks := map[string]handlers.Check{cfg.Store.Driver: st.check}

	var (
		limiter ports.LoginLimiter
		revoker ports.TokenRevoker
	)
	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
		Timeout:  cfg.Redis.Timeout,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, login throttling and token revocation disabled")
	} else {
		defer closeRedis(rdb, log)
		limiter = redis.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)
		revoker = redis.NewTokenRevoker(rdb)
		checks["redis"] = handlers.RedisCheck(rdb)
	}

	var publisher ports.AuditPublisher
	if len(cfg.Audit.KafkaBrokers) > 0 {
		p := kafka.NewAuditPublisher(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic, log)
		defer func() {
			if err := p.Close(); err != nil {
				log.Warn().Err(err).Msg("kafka publisher close failed")
			}
		}()
		publisher = p
		log.Info().Strs("brokers", cfg.Audit.KafkaBrokers).Str("topic", cfg.Audit.KafkaTopic).Msg("audit stream enabled")
	}

	// --- Audit pipeline ---
	auditService := service.NewAuditService(st.audit, publisher, log)
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditService, log)
	// Workers outlive the signal context so Stop can drain their queues.
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	// --- Core services ---
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	authService := service.NewAuthService(st.users, hasher, limiter, revoker, dispatcher, service.AuthConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		TokenTTL:       cfg.Auth.TokenTTL,
		Brokers:        cfg.Auth.Brokers,
		InitialBalance: cfg.Auth.InitialBalance,
	}, log)
	userService := service.NewUserService(st.users, hasher, dispatcher, log)

	if cfg.Auth.AdminEmail != "" {
		admin, err := service.NewBootstrapper(authService, st.users, log).
			EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.Info().Str("user_id", admin.ID).Msg("admin account ready")
	}

	// --- Scheduled jobs ---
	jobs := scheduler.New(scheduler.Config{
		StatsRefreshSpec: cfg.Jobs.StatsRefreshSpec,
		AuditPurgeSpec:   cfg.Jobs.AuditPurgeSpec,
		AuditRetention:   cfg.Audit.Retention,
	}, userService, st.audit, log)
	if err := jobs.Start(); err != nil {
		return err
	}
	defer jobs.Stop()

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		AuthService:  authService,
		UserService:  userService,
		AuditService: auditService,
		JWTSecret:    cfg.Auth.JWTSecret,
		Checks:       checks,
		Log:          log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("store", cfg.Store.Driver).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	log.Info().Msg("http server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongo.EnsureIndexes(ctx, db, log); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &store{
			users: mongo.NewUserRepository(db, log),
			audit: mongo.NewAuditRepository(db),
			check: handlers.MongoCheck(db),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.Warn().Err(err).Msg("mongo disconnect failed")
				}
			},
		}, nil
	default:
		pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Store.DatabaseURL})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
		return &store{
			users: postgres.NewUserRepository(pool),
			audit: postgres.NewAuditRepository(pool),
			check: handlers.PostgresCheck(pool),
			close: pool.Close,
		}, nil
	}
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
}
