package formguard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedisLedgerFirstUseWins(t *testing.T) {
	_, client := newTestRedis(t)
	ledger := NewRedisLedger(client, "fg", time.Hour)
	ctx := context.Background()

	first, err := ledger.Record(ctx, "s1", "sig-a")
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !first {
		t.Fatal("first record must report first use")
	}

	second, err := ledger.Record(ctx, "s1", "sig-a")
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if second {
		t.Fatal("second record must not report first use")
	}

	seen, err := ledger.Seen(ctx, "s1", "sig-a")
	if err != nil || !seen {
		t.Fatalf("seen = %v, %v; want true, nil", seen, err)
	}

	seen, err = ledger.Seen(ctx, "s2", "sig-a")
	if err != nil || seen {
		t.Fatalf("other session seen = %v, %v; want false, nil", seen, err)
	}
}

func TestRedisLedgerEntriesExpireWithRetention(t *testing.T) {
	mr, client := newTestRedis(t)
	ledger := NewRedisLedger(client, "fg", time.Minute)
	ctx := context.Background()

	if _, err := ledger.Record(ctx, "s1", "sig-a"); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	first, err := ledger.Record(ctx, "s1", "sig-a")
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !first {
		t.Fatal("signature must be recordable again after retention expiry")
	}
}

func TestStatefulGuardWithRedisLedger(t *testing.T) {
	_, client := newTestRedis(t)

	guard, err := New().
		WithSecretKey([]byte("redis-key")).
		WithContextURL("/f").
		WithStateful().
		WithRedis(client).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	now := time.Unix(1000, 0)
	value, err := guard.IssueAt(now)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	fields := map[string]string{guard.FieldName(): value}

	if out := guard.ValidateAt(context.Background(), "sess", fields, now); out.Result != ResultSuccess {
		t.Fatalf("first validation: result = %v (%s), want success", out.Result, out.Diagnostic)
	}
	if out := guard.ValidateAt(context.Background(), "sess", fields, now); out.Result != ResultReused {
		t.Fatalf("second validation: result = %v, want reused", out.Result)
	}
}

func TestRedisLedgerFailureSurfacesAsInvalid(t *testing.T) {
	mr, client := newTestRedis(t)

	guard, err := New().
		WithSecretKey([]byte("redis-key")).
		WithStateful().
		WithRedis(client).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	now := time.Unix(1000, 0)
	value, err := guard.IssueAt(now)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	fields := map[string]string{guard.FieldName(): value}

	mr.Close()

	out := guard.ValidateAt(context.Background(), "sess", fields, now)
	if out.Result != ResultInvalid {
		t.Fatalf("result = %v, want invalid when redis is down", out.Result)
	}
}
