package api

import (
	"context"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"campus-gate-control/internal/auth"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// claimsFromContext returns the authenticated claims for the request, or
// nil when authentication is disabled or the request is anonymous.
func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration_ms": duration.Milliseconds(),
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.UserAgent(),
		}).Info("HTTP request")
	})
}

// recoveryMiddleware recovers from panics and returns 500 error
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithFields(logrus.Fields{
					"error": err,
					"stack": string(debug.Stack()),
					"path":  r.URL.Path,
				}).Error("Panic recovered in HTTP handler")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// corsMiddleware handles CORS headers with configurable origins
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.CORSEnabled {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")

		allowedOrigin := ""
		for _, allowed := range s.config.AllowedOrigins {
			if allowed == "*" || allowed == origin {
				allowedOrigin = allowed
				break
			}
		}

		if allowedOrigin != "" {
			if allowedOrigin == "*" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if r.Method == http.MethodOptions {
			if allowedOrigin != "" {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusForbidden)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware adds standard security headers
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// rateLimitEntry tracks request timestamps for one client
type rateLimitEntry struct {
	requests []time.Time
}

// rateLimiter implements sliding window rate limiting keyed by client IP
type rateLimiter struct {
	mu             sync.Mutex
	entries        map[string]*rateLimitEntry
	requestsPerMin int
	windowSize     time.Duration
	lastCleanup    time.Time
}

func newRateLimiter(requestsPerMin int) *rateLimiter {
	return &rateLimiter{
		entries:        make(map[string]*rateLimitEntry),
		requestsPerMin: requestsPerMin,
		windowSize:     time.Minute,
		lastCleanup:    time.Now(),
	}
}

// isAllowed checks if a request is allowed and returns the remaining
// quota for the window.
func (rl *rateLimiter) isAllowed(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastCleanup) > rl.windowSize {
		rl.cleanup(now)
		rl.lastCleanup = now
	}

	entry, ok := rl.entries[key]
	if !ok {
		entry = &rateLimitEntry{}
		rl.entries[key] = entry
	}

	cutoff := now.Add(-rl.windowSize)
	valid := entry.requests[:0]
	for _, t := range entry.requests {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	entry.requests = valid

	if len(entry.requests) >= rl.requestsPerMin {
		return false, 0
	}

	entry.requests = append(entry.requests, now)
	return true, rl.requestsPerMin - len(entry.requests)
}

func (rl *rateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-rl.windowSize * 2)
	for key, entry := range rl.entries {
		if len(entry.requests) == 0 || entry.requests[len(entry.requests)-1].Before(cutoff) {
			delete(rl.entries, key)
		}
	}
}

// rateLimitMiddleware applies sliding window rate limiting per client IP
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if !s.config.RateLimitEnabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := getClientIP(r)
		allowed, remaining := s.rateLimiter.isAllowed(key)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(s.config.RequestsPerMin))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			s.logger.WithFields(logrus.Fields{
				"client_ip": key,
				"path":      r.URL.Path,
			}).Warn("Rate limit exceeded")
			s.writeError(w, r, ErrorCodeRateLimitExceeded, "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates bearer tokens and attaches the claims to the
// request context. Authentication can be disabled for development.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.AuthEnabled {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.writeError(w, r, ErrorCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"client_ip": getClientIP(r),
				"path":      r.URL.Path,
			}).Warn("Invalid session token")
			s.writeError(w, r, ErrorCodeInvalidToken, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getClientIP extracts the client IP from a request, honoring proxies
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
