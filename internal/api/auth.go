package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	userIDHeader          = "X-Sharer-User-Id"
	userIDMetadataKey     = "x-sharer-user-id"

	permReadBookings  = "read:bookings"
	permWriteBookings = "write:bookings"
	permReadItems     = "read:items"
	permWriteItems    = "write:items"

	clientKeyUnknown = "unknown"
)

var (
	errMissingKeyHeaders = errors.New("missing api key headers")
	errInvalidAPIKey     = errors.New("invalid api key")
	errInvalidExtra      = errors.New("invalid extra header")
	errPermissionDenied  = errors.New("permission denied")
	errRateLimited       = errors.New("rate limit exceeded")
	errQuotaExceeded     = errors.New("user request quota exceeded")
)

// keyAuth checks API keys and their permissions. It is shared by the REST and gRPC transports.
type keyAuth struct {
	clientsByAPIKey map[string]config.APIClientKey
	apiKeyHeader    string
	extraHeader     string
}

func newKeyAuth(cfg *config.APIConfig) *keyAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[strings.TrimSpace(k.Key)] = k
	}

	apiKeyHeader := strings.ToLower(strings.TrimSpace(cfg.Auth.HeaderAPIKey))
	if apiKeyHeader == "" {
		apiKeyHeader = apiKeyHeaderDefault
	}
	extraHeader := strings.ToLower(strings.TrimSpace(cfg.Auth.HeaderExtra))
	if extraHeader == "" {
		extraHeader = apiExtraHeaderDefault
	}

	return &keyAuth{clientsByAPIKey: m, apiKeyHeader: apiKeyHeader, extraHeader: extraHeader}
}

func (a *keyAuth) authenticate(apiKey, extra string) (config.APIClientKey, error) {
	if apiKey == "" || extra == "" {
		return config.APIClientKey{}, errMissingKeyHeaders
	}
	client, ok := a.clientsByAPIKey[apiKey]
	if !ok {
		return config.APIClientKey{}, errInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return config.APIClientKey{}, errInvalidExtra
	}
	return client, nil
}

func (a *keyAuth) authorize(client config.APIClientKey, required string) error {
	if required == "" {
		return nil
	}

	// If permissions list is empty, treat as allow-all.
	if len(client.Permissions) == 0 {
		return nil
	}

	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

// userQuota enforces the per-user fixed window quota on top of the per-key token bucket.
// Store failures are logged and the request is let through.
type userQuota struct {
	store  domain.RateLimitStore
	limit  int
	window time.Duration
	log    *zerolog.Logger
}

func newUserQuota(cfg *config.APIConfig, store domain.RateLimitStore, logger *zerolog.Logger) *userQuota {
	if store == nil || cfg.RateLimit.UserRequests <= 0 {
		return nil
	}
	window := time.Duration(cfg.RateLimit.UserWindowSeconds) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	return &userQuota{store: store, limit: cfg.RateLimit.UserRequests, window: window, log: logger}
}

func (q *userQuota) allow(ctx context.Context, userID int64) bool {
	if q == nil || userID <= 0 {
		return true
	}
	ok, err := q.store.CheckRateLimit(ctx, "user:"+strconv.FormatInt(userID, 10), q.limit, q.window)
	if err != nil {
		if q.log != nil {
			q.log.Error().Err(err).Int64("user_id", userID).Msg("user quota check failed")
		}
		return true
	}
	return ok
}

// parseUserID reads the acting user id, returning a validation error when it is absent or malformed.
func parseUserID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.Validation("Header %s is required", userIDHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("Invalid %s header: %s", userIDHeader, raw)
	}
	return id, nil
}

// AuthInterceptor applies API-key auth, the per-key token bucket and the per-user quota to gRPC calls.
type AuthInterceptor struct {
	cfg *config.APIConfig

	auth    *keyAuth
	limiter *rateLimiter
	quota   *userQuota
}

func NewAuthInterceptor(cfg *config.APIConfig, quota domain.RateLimitStore, logger *zerolog.Logger) *AuthInterceptor {
	return &AuthInterceptor{
		cfg:     cfg,
		auth:    newKeyAuth(cfg),
		limiter: newRateLimiter(cfg),
		quota:   newUserQuota(cfg, quota, logger),
	}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !a.cfg.Enabled {
			return handler(ctx, req)
		}

		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(ctx, info.FullMethod); err != nil {
				return nil, err
			}
		}
		if err := a.checkRateLimit(ctx); err != nil {
			return nil, err
		}
		if err := a.checkQuota(ctx); err != nil {
			return nil, err
		}

		return handler(ctx, req)
	}
}

func (a *AuthInterceptor) checkAuth(ctx context.Context, fullMethod string) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	client, err := a.auth.authenticate(first(md.Get(a.auth.apiKeyHeader)), first(md.Get(a.auth.extraHeader)))
	if err != nil {
		return status.Error(codes.Unauthenticated, err.Error())
	}

	if err := a.auth.authorize(client, requiredPermission(fullMethod)); err != nil {
		return status.Error(codes.PermissionDenied, err.Error())
	}
	return nil
}

func requiredPermission(fullMethod string) string {
	switch fullMethod {
	case methodCreateBooking, methodApproveBooking:
		return permWriteBookings
	case methodGetBooking, methodListBookings, methodHasCompletedBooking:
		return permReadBookings
	case methodGetItemSummary:
		return permReadItems
	default:
		return ""
	}
}

func (a *AuthInterceptor) checkRateLimit(ctx context.Context) error {
	if !a.limiter.allow(a.clientKey(ctx)) {
		return status.Error(codes.ResourceExhausted, errRateLimited.Error())
	}
	return nil
}

func (a *AuthInterceptor) checkQuota(ctx context.Context) error {
	md, _ := metadata.FromIncomingContext(ctx)
	userID, err := parseUserID(first(md.Get(userIDMetadataKey)))
	if err != nil {
		// Handlers reject the call themselves.
		return nil
	}
	if !a.quota.allow(ctx, userID) {
		return status.Error(codes.ResourceExhausted, errQuotaExceeded.Error())
	}
	return nil
}

func (a *AuthInterceptor) clientKey(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	if apiKey := first(md.Get(a.auth.apiKeyHeader)); apiKey != "" {
		return apiKey
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return clientKeyUnknown
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
