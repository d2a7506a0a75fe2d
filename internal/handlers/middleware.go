package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"portfolio/internal/auth"
	"portfolio/internal/metrics"
	"portfolio/internal/models"
)

type ctxKey int

const (
	ctxKeyToken ctxKey = iota
	ctxKeyUser
)

var (
	errNotAuthenticated = errors.New("not authenticated")
	errAdminRequired    = errors.New("admin access required")
	errRateLimited      = errors.New("rate limit exceeded")
)

// rateLimit enforces the named fixed-window bucket keyed by (client IP,
// route path). The X-RateLimit headers are set on every response so
// clients can pace themselves before hitting the cap.
func (s *Server) rateLimit(bucket string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + ":" + r.URL.Path
			res := s.limiter.Allow(bucket, key)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))

			if !res.Allowed {
				retry := int(time.Until(res.Reset).Seconds())
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				metrics.RateLimited.WithLabelValues(bucket).Inc()
				respondError(w, http.StatusTooManyRequests, errRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// edgeAuth is the cheap, stateless tier of the access gate: signature and
// expiry only, no database. Forgeries and expired tokens stop here.
func (s *Server) edgeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromRequest(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, errNotAuthenticated)
			return
		}
		if _, err := s.auth.Signer().Parse(token); err != nil {
			respondError(w, http.StatusUnauthorized, errNotAuthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyToken, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionAuth is the stateful tier: the token must still map to a live
// session row. A cryptographically valid token whose session was revoked
// is rejected here.
func (s *Server) sessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _ := r.Context().Value(ctxKeyToken).(string)
		if token == "" {
			token = auth.TokenFromRequest(r)
		}

		user, err := s.auth.VerifySession(r.Context(), token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, errNotAuthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin composes on top of sessionAuth for admin-only routes.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, errNotAuthenticated)
			return
		}
		if !user.IsAdmin() {
			respondError(w, http.StatusForbidden, errAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFrom(ctx context.Context) (models.PublicUser, bool) {
	user, ok := ctx.Value(ctxKeyUser).(models.PublicUser)
	return user, ok
}

// clientIP relies on chi's RealIP middleware having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
