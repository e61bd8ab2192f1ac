package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/mongo"

	database "github.com/FACorreiaa/shophub-api/app/db"
	"github.com/FACorreiaa/shophub-api/app/storage"
	"github.com/FACorreiaa/shophub-api/config"
	"github.com/FACorreiaa/shophub-api/internal/api/auth"
	"github.com/FACorreiaa/shophub-api/internal/api/products"
	"github.com/FACorreiaa/shophub-api/internal/api/upload"
)

// Container holds all application dependencies
type Container struct {
	Config                 *config.Config
	Logger                 *slog.Logger
	Pool                   *pgxpool.Pool
	MongoClient            *mongo.Client
	AuthHandler            *auth.HandlerImpl
	ProductHandler         *products.ProductHandler
	UploadHandler          *upload.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
}

type repositories struct {
	users    auth.UserRepo
	products products.ProductRepo
}

// NewContainer connects the configured store and wires services and handlers
// on top of it.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	repos, err := c.initRepositories(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init token manager: %w", err)
	}
	hasher := auth.NewBcryptHasher(cfg.Password.Cost, cfg.Password.MaxConcurrent)
	authService := auth.NewAuthService(repos.users, hasher, tokens, logger)

	productCache := cache.New(cfg.Cache.DefaultTTL, cfg.Cache.CleanupInterval)
	productService := products.NewProductService(repos.products, productCache, logger)

	var uploader storage.Uploader
	s3Uploader, err := storage.NewS3Uploader(ctx, cfg.ObjectStorage, logger)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Warn("Object storage disabled, image upload will answer 503")
	case err != nil:
		c.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	default:
		uploader = s3Uploader
	}

	c.AuthHandler = auth.NewAuthHandlerImpl(authService, logger)
	c.ProductHandler = products.NewProductHandler(productService, logger)
	c.UploadHandler = upload.NewHandler(uploader, logger)
	c.AuthenticateMiddleware = auth.Authenticate(authService, logger)
	return c, nil
}

func (c *Container) initRepositories(ctx context.Context) (*repositories, error) {
	cfg, logger := c.Config, c.Logger

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		dbConfig, err := database.NewDatabaseConfig(cfg, logger)
		if err != nil {
			logger.Error("Failed to generate database config", slog.Any("error", err))
			return nil, err
		}
		c.Pool, err = openPostgres.open(ctx, dbConfig.ConnectionURL, logger)
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:    auth.NewPostgresUserRepo(c.Pool, logger),
			products: products.NewPostgresProductRepo(c.Pool, logger),
		}, nil

	case config.StorageMongo:
		mongoCfg := cfg.Repositories.Mongo
		client, db, err := database.InitMongo(ctx, mongoCfg.URI, mongoCfg.Database, mongoCfg.Timeout, logger)
		if err != nil {
			logger.Error("Failed to connect to MongoDB", slog.Any("error", err))
			return nil, err
		}
		c.MongoClient = client
		users, err := auth.NewMongoUserRepo(ctx, db, logger)
		if err != nil {
			return nil, err
		}
		productRepo, err := products.NewMongoProductRepo(ctx, db, logger)
		if err != nil {
			return nil, err
		}
		return &repositories{users: users, products: productRepo}, nil

	default:
		logger.Warn("Using in-memory storage, data is lost on restart")
		return &repositories{
			users:    auth.NewMemoryUserRepo(),
			products: products.NewMemoryProductRepo(),
		}, nil
	}
}

// postgresSetup is the connect, readiness and migration sequence for the
// Postgres driver.
type postgresSetup struct {
	init    func(ctx context.Context, connectionURL string, logger *slog.Logger) (*pgxpool.Pool, error)
	wait    func(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) bool
	migrate func(databaseURL string, logger *slog.Logger) error
}

var openPostgres = postgresSetup{
	init:    database.Init,
	wait:    database.WaitForDB,
	migrate: database.RunMigrations,
}

// open builds the pool and waits for the server before migrating it.
func (s postgresSetup) open(ctx context.Context, connectionURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := s.init(ctx, connectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}
	if !s.wait(ctx, pool, logger) {
		closePool(pool)
		return nil, errors.New("database not ready")
	}
	if err = s.migrate(connectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		closePool(pool)
		return nil, err
	}
	return pool, nil
}

func closePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.MongoClient != nil {
		database.CloseMongo(c.MongoClient, c.Logger)
	}
}
