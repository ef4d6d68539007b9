package cache

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

const disposableDomainSetKey = "integrity:disposable-domains"

// RedisDisposableDomainStore answers disposable-email-domain membership
// against a Redis set shared with the denylist sync job.
type RedisDisposableDomainStore struct {
	client *redis.Client
}

// NewRedisDisposableDomainStore creates a domain denylist store backed by a Redis set.
func NewRedisDisposableDomainStore(client *redis.Client) *RedisDisposableDomainStore {
	return &RedisDisposableDomainStore{client: client}
}

func (s *RedisDisposableDomainStore) IsDisposable(ctx context.Context, emailDomain string) (bool, error) {
	domainKey := strings.ToLower(strings.TrimSpace(emailDomain))
	if domainKey == "" {
		return false, nil
	}
	return s.client.SIsMember(ctx, disposableDomainSetKey, domainKey).Result()
}

// Seed loads domains into the denylist set. Used by the worker on startup
// when a bundled denylist file is configured.
func (s *RedisDisposableDomainStore) Seed(ctx context.Context, domains []string) error {
	if len(domains) == 0 {
		return nil
	}
	members := make([]any, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			members = append(members, d)
		}
	}
	if len(members) == 0 {
		return nil
	}
	return s.client.SAdd(ctx, disposableDomainSetKey, members...).Err()
}
