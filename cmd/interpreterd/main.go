// Command interpreterd runs the face module interpreter as a gRPC service so
// the bridge can reach it over the network.
package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/example/faceauth/internal/config"
	"github.com/example/faceauth/internal/interpreter"
	"github.com/example/faceauth/internal/interpreterpb"
	"github.com/example/faceauth/internal/logging"
)

func main() {
	cfg, err := config.LoadInterpreterd()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	proc, err := interpreter.StartProcess(interpreter.ProcessConfig{
		Command:    cfg.Interpreter.PythonBin,
		ModulePath: cfg.Interpreter.ModulePath,
	}, logger)
	if err != nil {
		logger.Fatal("failed to start interpreter", zap.Error(err))
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err), zap.String("addr", cfg.Addr))
	}

	srv := grpc.NewServer()
	interpreterpb.RegisterInterpreterServer(srv, &interpreterpb.Server{Runtime: proc, Logger: logger})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		case <-proc.Done():
			logger.Error("interpreter exited, stopping", zap.Error(proc.ExitErr()))
		}
		srv.GracefulStop()
	}()

	logger.Info("interpreterd listening", zap.String("addr", cfg.Addr))
	if err := srv.Serve(listener); err != nil {
		logger.Error("gRPC server stopped", zap.Error(err))
	}
	if err := proc.Close(); err != nil {
		logger.Warn("failed to stop interpreter", zap.Error(err))
	}
}
