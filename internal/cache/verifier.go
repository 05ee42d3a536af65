package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/opensource-finance/preflight/internal/domain"
	"github.com/opensource-finance/preflight/internal/metrics"
)

// Stored values for definite verification answers.
const (
	verifiedValue   = "1"
	unverifiedValue = "0"
)

// CachedVerifier memoizes definite verification answers. Unknown answers and
// errors are never stored, so a transient upstream failure is retried on the
// next request instead of being pinned for the whole TTL.
type CachedVerifier struct {
	next   domain.ContractVerificationProvider
	cache  domain.Cache
	ttl    time.Duration
	logger *slog.Logger
}

var _ domain.ContractVerificationProvider = (*CachedVerifier)(nil)

// NewCachedVerifier wraps next with cache.
func NewCachedVerifier(next domain.ContractVerificationProvider, cache domain.Cache, ttl time.Duration, logger *slog.Logger) *CachedVerifier {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedVerifier{next: next, cache: cache, ttl: ttl, logger: logger}
}

// CheckVerified returns the cached answer when present, otherwise asks next.
// Cache failures are logged and bypassed.
func (v *CachedVerifier) CheckVerified(ctx context.Context, address string) (domain.Verification, error) {
	key := verificationKey(address)

	raw, err := v.cache.Get(ctx, key)
	if err != nil {
		metrics.VerificationCacheTotal.WithLabelValues("error").Inc()
		v.logger.Warn("verification cache read failed", "address", address, "error", err)
	}
	switch string(raw) {
	case verifiedValue:
		metrics.VerificationCacheTotal.WithLabelValues("hit").Inc()
		return domain.VerificationVerified, nil
	case unverifiedValue:
		metrics.VerificationCacheTotal.WithLabelValues("hit").Inc()
		return domain.VerificationUnverified, nil
	}
	if err == nil {
		metrics.VerificationCacheTotal.WithLabelValues("miss").Inc()
	}

	status, err := v.next.CheckVerified(ctx, address)
	if err != nil {
		return status, err
	}

	var value string
	switch status {
	case domain.VerificationVerified:
		value = verifiedValue
	case domain.VerificationUnverified:
		value = unverifiedValue
	default:
		return status, nil
	}

	if err := v.cache.Set(ctx, key, []byte(value), v.ttl); err != nil {
		v.logger.Warn("verification cache write failed", "address", address, "error", err)
	}
	return status, nil
}

func verificationKey(address string) string {
	return "verified:" + strings.ToLower(address)
}
