package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// appMetrics counts business events for /metrics.
type appMetrics struct {
	uptime              time.Time
	transactionsCreated int64
	transfers           int64
	failedTransfers     int64
	signIns             int64
	failedSignIns       int64
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady checks the store and reports rate limiter state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.ready == nil {
		checks["store"] = "not_configured"
	} else if err := s.ready.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}
	if s.svc.Ledger != nil {
		checks["ledger_version"] = s.svc.Ledger.Version()
	}

	NewJSONResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	sec := s.securityDetector.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	tr := s.traceMiddleware.GetMetrics()

	metric := func(name, kind, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n\n", name, help, name, kind, name, v)
	}

	w.WriteHeader(http.StatusOK)
	metric("http_requests_total", "counter", "Total number of HTTP requests", tr.TotalRequests)
	metric("http_last_response_microseconds", "gauge", "Duration of the most recent request", tr.LastResponseMicros)
	metric("ledger_transactions_created_total", "counter", "Transactions recorded through the API", atomic.LoadInt64(&s.appMetrics.transactionsCreated))
	metric("ledger_transfers_total", "counter", "Completed wallet transfers", atomic.LoadInt64(&s.appMetrics.transfers))
	metric("ledger_transfers_rejected_total", "counter", "Rejected wallet transfers", atomic.LoadInt64(&s.appMetrics.failedTransfers))
	metric("auth_signins_total", "counter", "Successful sign-ins", atomic.LoadInt64(&s.appMetrics.signIns))
	metric("auth_signins_failed_total", "counter", "Failed sign-ins", atomic.LoadInt64(&s.appMetrics.failedSignIns))
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", rl.TotalHits)
	metric("rate_limit_active_clients", "gauge", "Clients tracked by the rate limiter", rl.ClientCount)
	metric("security_suspicious_requests_total", "counter", "Requests flagged as suspicious", sec.SuspiciousRequests)
	if s.svc.Ledger != nil {
		metric("ledger_version", "gauge", "Committed ledger mutations since start", int64(s.svc.Ledger.Version()))
	}
	fmt.Fprintf(w, "# HELP app_uptime_seconds Application uptime in seconds\n# TYPE app_uptime_seconds gauge\napp_uptime_seconds %.0f\n",
		time.Since(s.appMetrics.uptime).Seconds())
}
