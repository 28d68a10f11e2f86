package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	flog "finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
	"finboard/internal/services"
)

// Services bundles the business services the API exposes.
type Services struct {
	Auth          *services.AuthService
	Ledger        *services.LedgerService
	Goals         *services.GoalService
	Investments   *services.InvestmentService
	Notifications *services.NotificationService
	Analytics     *services.AnalyticsService
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	Logger             *flog.Logger
	// Ready is checked by /readyz. Nil skips the check.
	Ready Pinger
}

type Server struct {
	http.Server
	svc    Services
	ready  Pinger
	logger *flog.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = flog.New(flog.DefaultConfig())
	}

	s := &Server{
		svc:              svc,
		ready:            opts.Ready,
		logger:           logger.WithComponent(flog.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	api := http.NewServeMux()
	s.routes(api)

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			flog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			flog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(api)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.HandleFunc("GET /metrics", s.handleMetrics)
	root.Handle("/api/", limited)

	var handler http.Handler = root
	handler = s.securityDetector.Middleware(handler)
	handler = security.CORS(security.DefaultCORSConfig(opts.CORSAllowedOrigins))(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/export", s.handleExportTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/wallets", s.handleListWallets)
	mux.HandleFunc("POST /api/wallets/transfer", s.handleTransfer)
	mux.HandleFunc("GET /api/wallets/{id}/transactions", s.handleWalletTransactions)
	mux.HandleFunc("GET /api/balance", s.handleBalance)

	mux.HandleFunc("GET /api/savings-goals", s.handleListGoals)
	mux.HandleFunc("POST /api/savings-goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/savings-goals/{id}", s.handleGetGoal)
	mux.HandleFunc("PUT /api/savings-goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/savings-goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /api/investments", s.handleListInvestments)
	mux.HandleFunc("POST /api/investments", s.handleCreateInvestment)
	mux.HandleFunc("GET /api/investments/summary", s.handleInvestmentSummary)
	mux.HandleFunc("GET /api/investments/{id}", s.handleGetInvestment)
	mux.HandleFunc("PUT /api/investments/{id}", s.handleUpdateInvestment)
	mux.HandleFunc("DELETE /api/investments/{id}", s.handleDeleteInvestment)

	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/analytics/monthly", s.handleMonthlyAnalytics)
	mux.HandleFunc("GET /api/analytics/categories", s.handleCategoryAnalytics)
	mux.HandleFunc("GET /api/insights", s.handleInsights)

	mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
	mux.HandleFunc("PUT /api/notifications/{id}/read", s.handleMarkNotificationRead)
	mux.HandleFunc("PUT /api/notifications/mark-all-read", s.handleMarkAllNotificationsRead)

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
