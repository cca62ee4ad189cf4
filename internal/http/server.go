package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"kosht/internal/auth"
	"kosht/internal/cache"
	"kosht/internal/log"
	"kosht/internal/services"
)

// cachedOverview remembers the last overview computed for a user, tagged
// with the reference date it was computed for.
type cachedOverview struct {
	date string
	resp overviewResponse
}

// Server is the JSON API over the budget, transaction and user services.
type Server struct {
	http.Server
	budgets      *services.BudgetService
	transactions *services.TransactionService
	users        *services.UserService
	issuer       *auth.TokenIssuer
	rateLimiter  *rateLimiter

	// overviewCache holds one overview per user, invalidated by any
	// write that can move the numbers.
	overviewCache    *cache.LRUCache[cachedOverview]
	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, budgets *services.BudgetService, transactions *services.TransactionService, users *services.UserService, issuer *auth.TokenIssuer) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		budgets:      budgets,
		transactions: transactions,
		users:        users,
		issuer:       issuer,
		rateLimiter:  newRateLimiter(),

		overviewCache:    cache.NewLRUCache[cachedOverview](1000, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.withRequestLogging(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.withRequestLogging(s.handleLogin))

	mux.HandleFunc("POST /api/users/tracking-mode", s.protected(s.handleSwitchTrackingMode))

	mux.HandleFunc("POST /api/budgets", s.protected(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets/overview", s.protected(s.handleBudgetOverview))

	mux.HandleFunc("POST /api/transactions", s.protected(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.protected(s.handleListTransactions))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.protected(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/transactions/{id}/restore", s.protected(s.handleRestoreTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}/category", s.protected(s.handleRecategorizeTransaction))

	return s
}

// startCacheCleanup periodically drops expired overview entries.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.overviewCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Overview cache cleanup", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the HTTP server and the cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.withRequestLogging(s.withAuth(next))
}

// withRequestLogging stamps a request id, applies rate limiting to writes
// and logs start/completion with status and duration.
func (s *Server) withRequestLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
