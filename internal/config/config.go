package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Interpreter describes how to reach the face module's interpreter.
type Interpreter struct {
	// Addr points at a remote interpreterd; empty spawns a local child.
	Addr       string `env:"INTERPRETER_ADDR"`
	PythonBin  string `env:"PYTHON_BIN" envDefault:"python3"`
	ModulePath string `env:"FACE_MODULE_PATH"`
	Module     string `env:"FACE_MODULE" envDefault:"face_module"`
}

// Server is the configuration of the bridge service.
type Server struct {
	HTTPAddr        string        `env:"FACEAUTH_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr        string        `env:"FACEAUTH_GRPC_ADDR" envDefault:":9090"`
	DatabaseDSN     string        `env:"DATABASE_DSN"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	JWTSecret       string        `env:"JWT_SECRET"`
	JWTAudience     string        `env:"JWT_AUDIENCE"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"10485760"`

	Interpreter Interpreter
}

// Interpreterd is the configuration of the standalone interpreter host.
type Interpreterd struct {
	Addr     string `env:"INTERPRETERD_ADDR" envDefault:":50051"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Interpreter Interpreter
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServer parses and validates the bridge service configuration.
func LoadServer() (*Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.HTTPAddr == "" {
		return nil, errors.New("FACEAUTH_HTTP_ADDR must not be empty")
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", cfg.MaxBodyBytes)
	}
	return &cfg, nil
}

// LoadInterpreterd parses the interpreter host configuration.
func LoadInterpreterd() (*Interpreterd, error) {
	var cfg Interpreterd
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.Interpreter.Addr != "" {
		return nil, errors.New("INTERPRETER_ADDR must be empty for interpreterd")
	}
	return &cfg, nil
}
