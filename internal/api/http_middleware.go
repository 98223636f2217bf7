package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDCtxKey = "request_id"
	unmatchedRoute  = "unmatched"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestIDFromHeader(c.GetHeader(requestIDHeader))
		c.Set(requestIDCtxKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(log *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		dur := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		code := c.Writer.Status()
		metrics.IncHTTP(route, strconv.Itoa(code))

		event := log.Info()
		if code >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("request_id", c.GetString(requestIDCtxKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", route).
			Int("status", code).
			Str("remote", c.ClientIP()).
			Dur("duration", dur).
			Msg("http request")
	}
}

func recovery(log *zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error().
			Str("request_id", c.GetString(requestIDCtxKey)).
			Interface("panic", recovered).
			Msg("http handler panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			errorResponse{Error: internalErrorMessage, Description: internalErrorMessage})
	})
}

// HTTPAuth provides API-key auth, per-key rate limiting and the per-user quota for REST endpoints.
type HTTPAuth struct {
	cfg     config.APIConfig
	auth    *keyAuth
	limiter *rateLimiter
	quota   *userQuota
}

func NewHTTPAuth(cfg config.APIConfig, quota domain.RateLimitStore, logger *zerolog.Logger) *HTTPAuth {
	return &HTTPAuth{
		cfg:     cfg,
		auth:    newKeyAuth(&cfg),
		limiter: newRateLimiter(&cfg),
		quota:   newUserQuota(&cfg, quota, logger),
	}
}

func (a *HTTPAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.cfg.Enabled || !a.cfg.HTTP.Enabled {
			c.Next()
			return
		}

		if a.cfg.Auth.Enabled {
			client, err := a.auth.authenticate(
				strings.TrimSpace(c.GetHeader(a.auth.apiKeyHeader)),
				strings.TrimSpace(c.GetHeader(a.auth.extraHeader)),
			)
			if err != nil {
				abort(c, http.StatusUnauthorized, err)
				return
			}
			if err := a.auth.authorize(client, requiredPermissionHTTP(c.Request.Method, c.FullPath())); err != nil {
				abort(c, http.StatusForbidden, err)
				return
			}
		}

		if !a.limiter.allow(a.clientKey(c.Request)) {
			abort(c, http.StatusTooManyRequests, errRateLimited)
			return
		}

		if userID, err := parseUserID(c.GetHeader(userIDHeader)); err == nil {
			if !a.quota.allow(c.Request.Context(), userID) {
				abort(c, http.StatusTooManyRequests, errQuotaExceeded)
				return
			}
		}

		c.Next()
	}
}

func abort(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, errorResponse{Error: http.StatusText(code), Description: err.Error()})
}

func requiredPermissionHTTP(method, route string) string {
	read := method == http.MethodGet
	switch {
	case strings.HasPrefix(route, "/bookings"):
		if read {
			return permReadBookings
		}
		return permWriteBookings
	case strings.HasPrefix(route, "/items"), strings.HasPrefix(route, "/requests"):
		if read {
			return permReadItems
		}
		return permWriteItems
	default:
		return ""
	}
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.auth.apiKeyHeader)); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}
