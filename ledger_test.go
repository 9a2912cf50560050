package formguard

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLedgerFirstUseWins(t *testing.T) {
	ledger := NewMemoryLedger(time.Hour)
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

func TestMemoryLedgerConcurrentRecordSerializes(t *testing.T) {
	ledger := NewMemoryLedger(time.Hour)
	ctx := context.Background()

	const workers = 64
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		firsts int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := ledger.Record(ctx, "race", "sig")
			if err != nil {
				t.Errorf("record failed: %v", err)
				return
			}
			if first {
				mu.Lock()
				firsts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if firsts != 1 {
		t.Fatalf("observed %d first uses, want exactly 1", firsts)
	}
}

func TestMemoryLedgerEndSession(t *testing.T) {
	ledger := NewMemoryLedger(time.Hour)
	ctx := context.Background()

	if _, err := ledger.Record(ctx, "s1", "sig-a"); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	ledger.EndSession("s1")

	first, err := ledger.Record(ctx, "s1", "sig-a")
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !first {
		t.Fatal("signature must be recordable again after session end")
	}
}

func TestMemoryLedgerPrunesExpiredEntries(t *testing.T) {
	ledger := NewMemoryLedger(time.Minute)
	ctx := context.Background()

	base := time.Unix(10000, 0)
	ledger.now = func() time.Time { return base }

	if _, err := ledger.Record(ctx, "s1", "sig-a"); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if ledger.Len() != 1 {
		t.Fatalf("len = %d, want 1", ledger.Len())
	}

	// Past the retention window the entry is dropped on the next write;
	// the token it tracked can no longer validate anyway.
	ledger.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := ledger.Record(ctx, "s2", "sig-b"); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if ledger.Len() != 1 {
		t.Fatalf("len = %d after prune, want 1", ledger.Len())
	}

	first, err := ledger.Record(ctx, "s1", "sig-a")
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !first {
		t.Fatal("pruned signature must be recordable again")
	}
}

func TestMemoryLedgerZeroRetentionNeverPrunes(t *testing.T) {
	ledger := NewMemoryLedger(0)
	ctx := context.Background()

	base := time.Unix(10000, 0)
	ledger.now = func() time.Time { return base }
	if _, err := ledger.Record(ctx, "s1", "sig-a"); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	ledger.now = func() time.Time { return base.Add(48 * time.Hour) }
	if _, err := ledger.Record(ctx, "s1", "sig-b"); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if ledger.Len() != 2 {
		t.Fatalf("len = %d, want 2", ledger.Len())
	}
}
