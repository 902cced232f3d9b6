package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/faceauth/internal/auth"
	"github.com/example/faceauth/internal/bridge"
	"github.com/example/faceauth/internal/config"
	"github.com/example/faceauth/internal/grpcclient"
	"github.com/example/faceauth/internal/grpcserver"
	"github.com/example/faceauth/internal/handlers"
	"github.com/example/faceauth/internal/interpreter"
	"github.com/example/faceauth/internal/logging"
	"github.com/example/faceauth/internal/repository"
	"github.com/example/faceauth/internal/usecase"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	guard := interpreter.Shared(interpreterLauncher(ctx, cfg.Interpreter, logger))
	defer func() {
		if err := guard.Close(); err != nil {
			logger.Warn("failed to stop interpreter", zap.Error(err))
		}
	}()

	faceAuth, err := bridge.NewFaceAuth(guard, cfg.Interpreter.Module, logger)
	if err != nil {
		logger.Fatal("failed to start interpreter", zap.Error(err))
	}
	registry := bridge.NewRegistry(faceAuth)

	var repo usecase.CallRepository
	if cfg.DatabaseDSN != "" {
		callRepo := repository.NewCallRepository(initDatabase(ctx, cfg.DatabaseDSN, logger), logger)
		if err := callRepo.AutoMigrate(ctx); err != nil {
			logger.Fatal("auto migrate failed", zap.Error(err))
		}
		repo = callRepo
	} else {
		logger.Info("DATABASE_DSN not set, call audit disabled")
	}

	var cache usecase.Cache
	if cfg.RedisAddr != "" {
		redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
		cache = usecase.NewRedisCache(initRedis(redisCtx, cfg.RedisAddr, logger), "")
		redisCancel()
	} else {
		logger.Info("REDIS_ADDR not set, result cache disabled")
	}

	uc := usecase.NewCallUseCase(registry, repo, cache, logger)

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.JWTAudience)
	if err != nil {
		logger.Fatal("invalid auth configuration", zap.Error(err))
	}

	if cfg.GRPCAddr != "" {
		grpcServer := grpcserver.New(uc, verifier, logger)
		stop, err := serveGRPC(grpcServer, cfg.GRPCAddr, logger)
		if err != nil {
			logger.Fatal("failed to start gRPC server", zap.Error(err))
		}
		defer stop()
	}

	r := gin.Default()
	handlers.RegisterRoutes(r, uc, auth.Middleware(verifier), cfg.MaxBodyBytes)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	logger.Info("faceauth bridge listening", zap.String("addr", cfg.HTTPAddr), zap.String("grpc_addr", cfg.GRPCAddr))
	if err := serveHTTPServer(server, cfg.ShutdownTimeout, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func interpreterLauncher(ctx context.Context, cfg config.Interpreter, logger *zap.Logger) interpreter.Launcher {
	if cfg.Addr != "" {
		return func() (interpreter.Runtime, error) {
			return grpcclient.DialInterpreter(ctx, cfg.Addr, logger)
		}
	}
	return interpreter.ProcessLauncher(interpreter.ProcessConfig{
		Command:    cfg.PythonBin,
		ModulePath: cfg.ModulePath,
	}, logger)
}

func initDatabase(ctx context.Context, dsn string, zapLogger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("failed to access db handle", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		zapLogger.Fatal("database ping failed", zap.Error(err))
	}

	return db
}

func initRedis(ctx context.Context, addr string, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	return client
}

func serveGRPC(server *grpc.Server, addr string, logger *zap.Logger) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC server stopped", zap.Error(err))
		}
	}()
	return server.GracefulStop, nil
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
