// Package security implements the pre-auth gate consulted before
// registration and admin login. It combines a GeoIP country blocklist, an
// email-domain blocklist and a fixed-window attempt counter per client IP.
package security

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"server/internal/infra/geoip"
)

// Verdict is the outcome of a gate check.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Reasons a gate check can block with.
const (
	ReasonCountryBlocked = "Registration is not available in your region"
	ReasonDomainBlocked  = "Email domain is not allowed"
	ReasonTooManyTries   = "Too many attempts, try again later"
)

// AttemptStore counts auth attempts per client within a fixed window.
type AttemptStore interface {
	// Incr advances the counter for key and returns its value, creating the
	// counter with the given expiry when absent.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Gate performs the pre-auth security check.
type Gate struct {
	resolver       geoip.CountryResolver
	attempts       AttemptStore
	blockedCountry map[string]struct{}
	blockedDomain  map[string]struct{}
	maxAttempts    int
	window         time.Duration
	logger         zerolog.Logger
}

// NewGate builds a Gate. resolver and attempts may be nil; the corresponding
// check then passes unconditionally (fail open, the gate is a fraud screen
// rather than an authorization boundary).
func NewGate(resolver geoip.CountryResolver, attempts AttemptStore, blockedCountries, blockedDomains []string, maxAttempts int, window time.Duration, logger zerolog.Logger) *Gate {
	g := &Gate{
		resolver:       resolver,
		attempts:       attempts,
		blockedCountry: make(map[string]struct{}, len(blockedCountries)),
		blockedDomain:  make(map[string]struct{}, len(blockedDomains)),
		maxAttempts:    maxAttempts,
		window:         window,
		logger:         logger,
	}
	for _, c := range blockedCountries {
		g.blockedCountry[strings.ToUpper(c)] = struct{}{}
	}
	for _, d := range blockedDomains {
		g.blockedDomain[strings.ToLower(d)] = struct{}{}
	}
	return g
}

// Allow runs the gate for one auth attempt from ip with the given email.
func (g *Gate) Allow(ctx context.Context, email, ip string) Verdict {
	if g.attempts != nil && g.maxAttempts > 0 && ip != "" {
		count, err := g.attempts.Incr(ctx, "auth_attempts:"+ip, g.window)
		if err != nil {
			g.logger.Warn().Err(err).Msg("attempt counter unavailable")
		} else if count > int64(g.maxAttempts) {
			return Verdict{Allowed: false, Reason: ReasonTooManyTries}
		}
	}

	if domain := emailDomain(email); domain != "" {
		if _, blocked := g.blockedDomain[domain]; blocked {
			return Verdict{Allowed: false, Reason: ReasonDomainBlocked}
		}
	}

	if g.resolver != nil && len(g.blockedCountry) > 0 && ip != "" {
		country, err := g.resolver.CountryCode(ip)
		if err != nil {
			g.logger.Warn().Err(err).Str("ip", ip).Msg("country lookup failed")
		} else if _, blocked := g.blockedCountry[strings.ToUpper(country)]; blocked {
			return Verdict{Allowed: false, Reason: ReasonCountryBlocked}
		}
	}

	return Verdict{Allowed: true}
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// RedisAttemptStore counts attempts in Redis so the window survives restarts
// and is shared between instances.
type RedisAttemptStore struct {
	client *redis.Client
}

// NewRedisAttemptStore wraps a redis client; nil yields nil.
func NewRedisAttemptStore(client *redis.Client) *RedisAttemptStore {
	if client == nil {
		return nil
	}
	return &RedisAttemptStore{client: client}
}

func (s *RedisAttemptStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// MemoryAttemptStore is the in-process fallback used when Redis is not
// configured.
type MemoryAttemptStore struct {
	mu      sync.Mutex
	buckets map[string]*attemptBucket
	now     func() time.Time
}

type attemptBucket struct {
	count int64
	until time.Time
}

// NewMemoryAttemptStore creates an in-memory attempt store. The now function
// may be nil, in which case time.Now is used.
func NewMemoryAttemptStore(now func() time.Time) *MemoryAttemptStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryAttemptStore{buckets: make(map[string]*attemptBucket), now: now}
}

func (s *MemoryAttemptStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	b, ok := s.buckets[key]
	if !ok || now.After(b.until) {
		b = &attemptBucket{until: now.Add(window)}
		s.buckets[key] = b
	}
	b.count++
	return b.count, nil
}
