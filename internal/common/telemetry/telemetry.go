// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/harborcover/commsight/internal/common"
)

type spanKey struct{}

type span struct {
	name  string
	start time.Time
}

type MemoryLimitError struct {
	Component string
	Usage     uint64
	Limit     uint64
}

func (e MemoryLimitError) Error() string {
	return fmt.Sprintf("memory limit exceeded for %s: %d > %d", e.Component, e.Usage, e.Limit)
}

var (
	initOnce sync.Once

	routeTotal *expvar.Map

	queryAttemptTotal      *expvar.Int
	validationFailureTotal *expvar.Map
	retryExhaustedTotal    *expvar.Int

	routingAnomalyTotal *expvar.Int

	vectorSearchTotal     *expvar.Int
	vectorSearchLatencyMS *expvar.Int

	llmCallTotal     *expvar.Map
	llmCallLatencyMS *expvar.Map

	synthesisFallbackTotal *expvar.Int

	memoryLimitBytes uint64
	memoryLimitVar   *expvar.Int
	memoryUsageVar   *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		routeTotal = expvar.NewMap("commsight_route_total")

		queryAttemptTotal = expvar.NewInt("commsight_query_attempts_total")
		validationFailureTotal = expvar.NewMap("commsight_validation_failures_total")
		retryExhaustedTotal = expvar.NewInt("commsight_retry_exhausted_total")

		routingAnomalyTotal = expvar.NewInt("commsight_routing_anomalies_total")

		vectorSearchTotal = expvar.NewInt("commsight_vector_search_total")
		vectorSearchLatencyMS = expvar.NewInt("commsight_vector_search_latency_ms")

		llmCallTotal = expvar.NewMap("commsight_llm_calls_total")
		llmCallLatencyMS = expvar.NewMap("commsight_llm_call_latency_ms")

		synthesisFallbackTotal = expvar.NewInt("commsight_synthesis_fallbacks_total")

		memoryLimitVar = expvar.NewInt("commsight_memory_limit_bytes")
		memoryUsageVar = expvar.NewInt("commsight_memory_usage_bytes")

		memoryLimitBytes = loadMemoryLimit()
		memoryLimitVar.Set(int64(memoryLimitBytes))
	})
}

func loadMemoryLimit() uint64 {
	limit := strings.TrimSpace(os.Getenv("COMMSIGHT_MEMORY_LIMIT_BYTES"))
	if limit != "" {
		if value, err := strconv.ParseUint(limit, 10, 64); err == nil {
			return value
		}
	}
	if limitMB := strings.TrimSpace(os.Getenv("COMMSIGHT_MEMORY_LIMIT_MB")); limitMB != "" {
		if value, err := strconv.ParseUint(limitMB, 10, 64); err == nil {
			return value * 1024 * 1024
		}
	}
	return 0
}

func StartSpan(ctx context.Context, name string) (context.Context, func(attrs ...interface{})) {
	ensureInit()
	sp := &span{name: name, start: time.Now()}
	ctx = context.WithValue(ctx, spanKey{}, sp)
	logger := common.Logger()
	logger.Debug("trace: start", "span", name)
	return ctx, func(attrs ...interface{}) {
		if sp == nil {
			return
		}
		duration := time.Since(sp.start)
		logger.Debug("trace: end", append([]interface{}{"span", name, "dur", duration}, attrs...)...)
	}
}

// RecordRoute counts one orchestration pass through the named route.
func RecordRoute(route string) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(route))
	if key == "" {
		key = "unknown"
	}
	routeTotal.Add(key, 1)
}

// RecordQueryAttempt counts one generate-validate-execute attempt. Failed
// validation attempts are additionally counted per violated rule.
func RecordQueryAttempt(violation string) {
	ensureInit()
	queryAttemptTotal.Add(1)
	if v := strings.TrimSpace(strings.ToLower(violation)); v != "" {
		validationFailureTotal.Add(v, 1)
	}
}

func RecordRetryExhausted() {
	ensureInit()
	retryExhaustedTotal.Add(1)
}

func RecordRoutingAnomaly() {
	ensureInit()
	routingAnomalyTotal.Add(1)
}

func RecordVectorSearch(duration time.Duration) {
	ensureInit()
	vectorSearchTotal.Add(1)
	if duration > 0 {
		vectorSearchLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordLLMCall counts a completion or embedding round-trip by call shape
// (complete, complete_json, embed).
func RecordLLMCall(shape string, duration time.Duration) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(shape))
	if key == "" {
		key = "unknown"
	}
	llmCallTotal.Add(key, 1)
	if duration > 0 {
		llmCallLatencyMS.Add(key, duration.Milliseconds())
	}
}

func RecordSynthesisFallback() {
	ensureInit()
	synthesisFallbackTotal.Add(1)
}

func CheckMemoryBudget(component string) error {
	ensureInit()
	if memoryLimitBytes == 0 {
		updateMemoryUsage()
		return nil
	}
	usage := updateMemoryUsage()
	if usage > memoryLimitBytes {
		err := MemoryLimitError{Component: component, Usage: usage, Limit: memoryLimitBytes}
		common.Logger().Warn("telemetry: memory guard tripped", "component", component, "usage", usage, "limit", memoryLimitBytes)
		return err
	}
	return nil
}

func updateMemoryUsage() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	usage := stats.Alloc
	memoryUsageVar.Set(int64(usage))
	return usage
}

func SpanDuration(ctx context.Context) time.Duration {
	sp, _ := ctx.Value(spanKey{}).(*span)
	if sp == nil {
		return 0
	}
	return time.Since(sp.start)
}
