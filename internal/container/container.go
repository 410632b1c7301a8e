package container

import (
	"context"
	"fmt"

	"pokertable/internal/config"
	"pokertable/internal/identity"
	"pokertable/internal/metrics"
	"pokertable/internal/repository"
	"pokertable/internal/service"
	"pokertable/internal/service/auth"
	"pokertable/pkg/database"
	"pokertable/pkg/logger"
	"pokertable/pkg/redis"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB // nil when running on the in-memory store
	RedisClient *redis.Client
	Store       repository.Store
	Registry    *prometheus.Registry
	Metrics     *metrics.Collector
	Tokens      *auth.Service
	Resolver    *identity.Resolver
	Services    *service.Services
}

// New creates a new dependency injection container. Without DATABASE_URL the
// in-memory store is used; without a reachable Redis caching is disabled.
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	if cfg.DatabaseURL != "" {
		if cfg.AutoMigrate {
			if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
				return nil, err
			}
			logger.Info("Database migrations applied")
		}

		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.DefaultPoolConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = db
		c.Store = repository.NewPostgresStore(db)
		logger.Info("PostgreSQL store initialized")
	} else {
		c.Store = repository.NewMemoryStore()
		logger.Warn("DATABASE_URL not configured, using in-memory store")
	}

	// Initialize Redis client if Redis URL is configured
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			c.RedisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without caching")
	}

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.NewCollector(c.Registry)

	c.Tokens = auth.NewService(cfg.JWTSecret, cfg.JWTTTL, logger)
	c.Resolver = identity.NewResolver(c.Tokens)

	zl := logger.Logger
	cache := service.NewCacheService(c.RedisClient, zl)
	c.Services = &service.Services{
		Voting:   service.NewVotingService(c.Store, cache, c.Metrics, cfg.VoteRange, zl),
		Tables:   service.NewTableService(c.Store, cache, c.Metrics, cfg.TablePolicy, zl),
		Join:     service.NewJoinService(c.Store, cache, c.Metrics, zl),
		Accounts: service.NewAccountService(c.Store, c.Tokens, zl),
		Stories:  service.NewUserStoryService(c.Store, zl),
		Cache:    cache,
	}

	return c, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// HasDatabase returns true when the PostgreSQL store is in use
func (c *Container) HasDatabase() bool {
	return c.DB != nil
}
