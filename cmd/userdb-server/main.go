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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/userdb/userdb/internal/api"
	"github.com/userdb/userdb/internal/config"
	"github.com/userdb/userdb/internal/database"
	"github.com/userdb/userdb/internal/health"
	"github.com/userdb/userdb/internal/users"
)

// AppState holds all application services
type AppState struct {
	Logger        *zap.Logger
	Config        *config.Config
	UserStore     users.UserStore
	UserService   users.UserService
	HealthManager *health.Manager
}

func main() {
	// Load configuration
	config.Load()

	logger := initLogger()
	defer logger.Sync() //nolint:errcheck
	logger.Info("Configuration loaded", zap.String("store_driver", config.Store().Driver))

	ctx := context.Background()

	as, err := newAppState(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application state", zap.Error(err))
	}

	if err := checkStartup(ctx, as); err != nil {
		logger.Fatal("Startup health check failed", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(as.UserService, as.HealthManager, logger, config.Http().MaxRequestSize)

	addr := fmt.Sprintf("%s:%d", config.Http().Host, config.Http().Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := setupSignalHandler(as, server, logger)

	logger.Info("Starting userdb server", zap.String("address", addr))

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	<-done
	logger.Info("Server shutdown complete")
}

// newAppState opens the configured store and wires the services around it
func newAppState(ctx context.Context, logger *zap.Logger) (*AppState, error) {
	store, err := openStore(ctx, logger)
	if err != nil {
		return nil, err
	}

	schema, err := users.NewSchema(config.Users().Schema)
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("invalid user schema: %w", err)
	}

	healthManager := health.NewManager(logger)
	healthManager.AddChecker(health.NewStoreChecker(config.Store().Driver, store))

	return &AppState{
		Logger:        logger,
		Config:        config.Get(),
		UserStore:     store,
		UserService:   users.NewUserService(store, schema),
		HealthManager: healthManager,
	}, nil
}

// checkStartup runs the startup health check and closes the store when it fails
func checkStartup(ctx context.Context, as *AppState) error {
	err := as.HealthManager.StartupHealthCheck(ctx)
	if err == nil {
		return nil
	}

	if closeErr := as.UserStore.Close(ctx); closeErr != nil {
		as.Logger.Warn("Failed to close user store", zap.Error(closeErr))
	}
	return err
}

func openStore(ctx context.Context, logger *zap.Logger) (users.UserStore, error) {
	driver := config.Store().Driver

	switch driver {
	case config.StoreDriverMongo:
		mongoConfig := config.Mongo()
		client, err := database.ConnectMongo(ctx, mongoConfig.URI, time.Duration(mongoConfig.ConnectTimeout)*time.Second)
		if err != nil {
			logger.Error("Failed to connect to MongoDB", zap.Error(err))
			return nil, err
		}
		logger.Info("Connected to MongoDB",
			zap.String("database", mongoConfig.Database),
			zap.String("collection", mongoConfig.Collection))
		return users.NewMongoStore(client, mongoConfig.Database, mongoConfig.Collection), nil

	case config.StoreDriverPostgres:
		pgConfig := config.Postgres()
		db, err := database.OpenPostgres(ctx, pgConfig.DSN(), pgConfig.MaxOpenConnections)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL", zap.Error(err))
			return nil, err
		}
		logger.Info("Connected to PostgreSQL",
			zap.String("host", pgConfig.Host),
			zap.Int("port", pgConfig.Port),
			zap.String("database", pgConfig.Database))

		store := users.NewPostgresStore(db)
		if err := store.CreateTable(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return store, nil

	case config.StoreDriverMemory:
		logger.Warn("Using in-memory user store, data will not survive a restart")
		return users.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %q", driver)
	}
}

func initLogger() *zap.Logger {
	logConfig := config.Logger()

	var config zap.Config
	if logConfig.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	switch logConfig.Level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}

func setupSignalHandler(as *AppState, server *http.Server, logger *zap.Logger) chan struct{} {
	done := make(chan struct{}, 1)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalCh

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
		}

		// the store outlives every request, so it is closed last
		if err := as.UserStore.Close(ctx); err != nil {
			logger.Error("Error closing user store", zap.Error(err))
		}

		done <- struct{}{}
	}()

	return done
}
