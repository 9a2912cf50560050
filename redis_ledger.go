package formguard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

/*
====================================
REDIS LEDGER
====================================
*/

// RedisLedger is a [ReplayLedger] backed by Redis, for deployments where
// several frontends verify tokens for the same sessions. Each recorded
// signature becomes one key with a TTL equal to the retention window, so
// eviction stays aligned with token expiry and the ledger never grows
// without bound.
type RedisLedger struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisLedger creates a [RedisLedger] using the given client. prefix
// namespaces the keys; retention should match the guard's MaxAge and must
// be > 0 because Redis treats a zero TTL as no expiry.
func NewRedisLedger(client redis.UniversalClient, prefix string, retention time.Duration) *RedisLedger {
	if retention <= 0 {
		retention = time.Hour
	}
	return &RedisLedger{
		redis:     client,
		prefix:    prefix,
		retention: retention,
	}
}

func (l *RedisLedger) key(sessionID, signature string) string {
	return l.prefix + ":used:" + sessionID + ":" + signature
}

// Record describes the record operation and its observable behavior.
//
// Record may return an error when the Redis backend is unavailable.
// Record is safe for concurrent use; SETNX makes the check-then-insert a
// single atomic round-trip, so concurrent requests racing on the same
// signature observe exactly one first use.
func (l *RedisLedger) Record(ctx context.Context, sessionID, signature string) (bool, error) {
	first, err := l.redis.SetNX(ctx, l.key(sessionID, signature), 1, l.retention).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return first, nil
}

// Seen describes the seen operation and its observable behavior.
//
// Seen may return an error when the Redis backend is unavailable.
// Seen is safe for concurrent use.
func (l *RedisLedger) Seen(ctx context.Context, sessionID, signature string) (bool, error) {
	n, err := l.redis.Exists(ctx, l.key(sessionID, signature)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return n > 0, nil
}
