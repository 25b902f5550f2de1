// File path: cmd/commsight/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/harborcover/commsight/internal/api"
	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/docsearch"
	"github.com/harborcover/commsight/internal/executor"
	"github.com/harborcover/commsight/internal/llm"
	"github.com/harborcover/commsight/internal/memory"
	"github.com/harborcover/commsight/internal/orchestrator"
	"github.com/harborcover/commsight/internal/postgres"
	"github.com/harborcover/commsight/internal/respond"
	"github.com/harborcover/commsight/internal/sqlgen"
	"github.com/harborcover/commsight/internal/vector"
)

func main() {
	logger := common.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		logger.Warn("commsight: .env file not loaded", "error", err)
	} else {
		logger.Info("commsight: environment loaded from .env")
	}

	addr := flag.String("addr", defaultAddr(), "listen address")
	manageDefault := false
	if env := strings.TrimSpace(os.Getenv("COMMSIGHT_MANAGE_CHROMADB")); env != "" {
		if parsed, err := strconv.ParseBool(env); err == nil {
			manageDefault = parsed
		}
	}
	manageChroma := flag.Bool("manage-chromadb", manageDefault, "launch a local ChromaDB server and wait for its heartbeat")
	reindexDocs := flag.Bool("reindex", false, "embed indexable documents into the vector store, print stats, and exit")
	flag.Parse()

	logger.Info("commsight: startup initiated", "addr", *addr)

	if *manageChroma {
		services, serviceErr := startManagedServices(ctx, logger)
		if serviceErr != nil {
			logger.Error("commsight: failed to launch chromadb", "error", serviceErr)
			fmt.Println("chromadb startup error:", serviceErr)
			os.Exit(1)
		}
		defer stopManagedServices(context.Background(), services, logger)
	}

	llmCfg, err := llm.LoadConfig()
	if err != nil {
		fatal(logger, "llm config", err)
	}
	provider := llm.NewProvider(llmCfg)
	logger.Info("commsight: llm provider ready", "provider", provider.Name())

	pgCfg, err := postgres.LoadConfig()
	if err != nil {
		fatal(logger, "postgres config", err)
	}
	store, err := postgres.OpenWithConfig(pgCfg)
	if err != nil {
		fatal(logger, "postgres", err)
	}
	defer store.Close()
	if err := store.Healthy(ctx); err != nil {
		logger.Warn("commsight: postgres unreachable at startup", "error", err)
	} else {
		logger.Info("commsight: postgres ready")
	}

	vecCfg, err := vector.LoadConfig()
	if err != nil {
		fatal(logger, "chromadb config", err)
	}
	vectorClient := vector.NewClient(vecCfg)
	defer vectorClient.Close()
	if vectorClient.Available(ctx) {
		logger.Info("commsight: chromadb available")
	} else {
		logger.Warn("commsight: chromadb unreachable, document search degraded")
	}

	window, err := memoryWindow()
	if err != nil {
		fatal(logger, "memory config", err)
	}
	conversations := memory.NewStore(window)

	orchCfg, err := orchestrator.LoadConfig()
	if err != nil {
		fatal(logger, "orchestrator config", err)
	}
	execCfg, err := executor.LoadConfig()
	if err != nil {
		fatal(logger, "executor config", err)
	}
	searchCfg, err := docsearch.LoadConfig()
	if err != nil {
		fatal(logger, "docsearch config", err)
	}

	if *reindexDocs {
		indexer := docsearch.NewIndexer(provider, vectorClient, store, searchCfg)
		stats, err := indexer.Reindex(ctx)
		if err != nil {
			fatal(logger, "reindex", err)
		}
		logger.Info("commsight: reindex complete",
			"documents", stats.Documents, "summaries", stats.Summaries,
			"chunks", stats.Chunks, "failures", stats.Failures)
		fmt.Printf("Indexed %d document(s): %d summaries, %d chunks, %d failures\n",
			stats.Documents, stats.Summaries, stats.Chunks, stats.Failures)
		return
	}

	sqlTemp, err := sqlTemperature()
	if err != nil {
		fatal(logger, "llm config", err)
	}
	maxRows, err := nlgMaxRows()
	if err != nil {
		fatal(logger, "respond config", err)
	}

	generator := sqlgen.NewGenerator(provider, sqlTemp)
	responder := respond.NewGenerator(provider, orchCfg.SynthesisTemperature, maxRows)
	sqlAgent := executor.New(generator, store, responder, execCfg)
	docAgent := docsearch.NewAgent(provider, vectorClient, store, searchCfg)
	supervisor := orchestrator.NewSupervisor(provider)
	orch := orchestrator.New(supervisor, sqlAgent, docAgent, conversations, provider, orchCfg)

	apiServer, err := api.NewServer(orch)
	if err != nil {
		fatal(logger, "server", err)
	}

	logger.Info("commsight: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("commsight: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))

	httpServer := &http.Server{Addr: *addr, Handler: apiServer}
	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("commsight: server stopped", "error", err)
			fmt.Println("server stopped:", err)
		}
	case <-ctx.Done():
		logger.Info("commsight: shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("commsight: shutdown incomplete", "error", err)
		}
	}
}

func fatal(logger *slog.Logger, what string, err error) {
	logger.Error("commsight: startup failed", "stage", what, "error", err)
	fmt.Println(what+" error:", err)
	os.Exit(1)
}

func defaultAddr() string {
	if env := strings.TrimSpace(os.Getenv("COMMSIGHT_ADDR")); env != "" {
		return env
	}
	return ":8080"
}

func memoryWindow() (int, error) {
	raw := strings.TrimSpace(os.Getenv("MEMORY_WINDOW_SIZE"))
	if raw == "" {
		return 3, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid MEMORY_WINDOW_SIZE %q", raw)
	}
	return n, nil
}

func sqlTemperature() (float64, error) {
	raw := strings.TrimSpace(os.Getenv("LLM_TEMPERATURE_SQL"))
	if raw == "" {
		return 0.1, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f > 2 {
		return 0, fmt.Errorf("invalid LLM_TEMPERATURE_SQL %q", raw)
	}
	return f, nil
}

func nlgMaxRows() (int, error) {
	raw := strings.TrimSpace(os.Getenv("NLG_MAX_ROWS"))
	if raw == "" {
		return 10, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid NLG_MAX_ROWS %q", raw)
	}
	return n, nil
}
