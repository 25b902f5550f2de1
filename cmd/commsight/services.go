// File path: cmd/commsight/services.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harborcover/commsight/internal/common/process"
)

// startManagedServices launches a local ChromaDB server and blocks until
// its heartbeat answers. Host, port, and scheme defaults are written into
// the environment first so the vector client resolves the same endpoint.
func startManagedServices(ctx context.Context, logger *slog.Logger) ([]*process.Service, error) {
	chromaBin, err := chromaBinary()
	if err != nil {
		return nil, err
	}
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	chromaDataDir := filepath.Join(workDir, "chroma_data")
	if err := os.MkdirAll(chromaDataDir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare chroma data directory: %w", err)
	}

	if err := ensureEnvDefault("CHROMADB_HOST", "127.0.0.1"); err != nil {
		return nil, err
	}
	if err := ensureEnvDefault("CHROMADB_PORT", "8000"); err != nil {
		return nil, err
	}
	if err := ensureEnvDefault("CHROMADB_SCHEME", "http"); err != nil {
		return nil, err
	}

	services := make([]*process.Service, 0, 1)

	chromaHost := os.Getenv("CHROMADB_HOST")
	chromaPort := os.Getenv("CHROMADB_PORT")
	readyURL := fmt.Sprintf("%s://%s/api/v1/heartbeat", os.Getenv("CHROMADB_SCHEME"), net.JoinHostPort(chromaHost, chromaPort))
	chromaService, err := process.Start(ctx, process.Config{
		Name:    "chromadb",
		Command: chromaBin,
		Args:    []string{"run", "--path", chromaDataDir, "--host", chromaHost, "--port", chromaPort},
		Env: []string{
			"ANONYMIZED_TELEMETRY=false",
		},
		ReadyURL:     readyURL,
		ReadyTimeout: 2 * time.Minute,
		StopTimeout:  5 * time.Second,
		Logger:       logger.With("component", "launcher", "service", "chromadb"),
	})
	if err != nil {
		stopManagedServices(context.Background(), services, logger)
		return nil, err
	}
	services = append(services, chromaService)

	return services, nil
}

func stopManagedServices(ctx context.Context, services []*process.Service, logger *slog.Logger) {
	for i := len(services) - 1; i >= 0; i-- {
		svc := services[i]
		if svc == nil {
			continue
		}
		if err := svc.Stop(ctx); err != nil && logger != nil {
			logger.Warn("launcher: service shutdown returned error", "error", err)
		}
	}
}

func chromaBinary() (string, error) {
	candidate := strings.TrimSpace(os.Getenv("CHROMA_BIN"))
	if candidate == "" {
		candidate = "chroma"
	}
	path, err := process.BinaryPath(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve chroma binary: %w", err)
	}
	return path, nil
}

func ensureEnvDefault(key, value string) error {
	if _, ok := os.LookupEnv(key); ok {
		return nil
	}
	if err := os.Setenv(key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
