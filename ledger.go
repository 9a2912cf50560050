package formguard

import (
	"context"
	"sync"
	"time"
)

// ReplayLedger is the session-scoped collaborator that makes stateful
// mode single-use. Implementations persist which signatures have already
// been accepted within a session; their storage lifecycle is outside the
// core's scope.
type ReplayLedger interface {
	// Record atomically marks signature as used within sessionID and
	// reports whether this call was the first use. Two concurrent calls
	// with the same arguments must never both observe first use.
	Record(ctx context.Context, sessionID, signature string) (bool, error)

	// Seen reports whether signature was already recorded for sessionID.
	Seen(ctx context.Context, sessionID, signature string) (bool, error)
}

/*
====================================
MEMORY LEDGER
====================================
*/

type memoryLedgerEntry struct {
	recordedAt int64
}

// MemoryLedger is an in-process [ReplayLedger] for single-instance
// deployments and tests. Entries are pruned once older than the retention
// window; tokens expire on their own timeline, so a signature recorded
// longer ago than the token lifetime can never be replayed successfully
// and is safe to forget.
type MemoryLedger struct {
	mu        sync.Mutex
	retention time.Duration
	sessions  map[string]map[string]memoryLedgerEntry
	now       func() time.Time
}

// NewMemoryLedger creates a [MemoryLedger] whose entries are retained for
// at least the given window. The window should match the guard's MaxAge;
// a zero window disables pruning.
func NewMemoryLedger(retention time.Duration) *MemoryLedger {
	return &MemoryLedger{
		retention: retention,
		sessions:  make(map[string]map[string]memoryLedgerEntry),
		now:       time.Now,
	}
}

// Record describes the record operation and its observable behavior.
//
// Record may return an error when input validation or dependency calls fail.
// Record is safe for concurrent use; the check-then-insert is performed
// under a single lock acquisition.
func (l *MemoryLedger) Record(_ context.Context, sessionID, signature string) (bool, error) {
	now := l.now().Unix()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)

	session, ok := l.sessions[sessionID]
	if !ok {
		session = make(map[string]memoryLedgerEntry)
		l.sessions[sessionID] = session
	}

	if _, used := session[signature]; used {
		return false, nil
	}

	session[signature] = memoryLedgerEntry{recordedAt: now}
	return true, nil
}

// Seen describes the seen operation and its observable behavior.
//
// Seen may return an error when input validation or dependency calls fail.
// Seen is safe for concurrent use.
func (l *MemoryLedger) Seen(_ context.Context, sessionID, signature string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	session, ok := l.sessions[sessionID]
	if !ok {
		return false, nil
	}
	_, used := session[signature]
	return used, nil
}

// EndSession drops every entry recorded for sessionID. Call it when the
// surrounding session is destroyed.
func (l *MemoryLedger) EndSession(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sessions, sessionID)
}

// Len reports the total number of recorded signatures across sessions.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0
	for _, session := range l.sessions {
		total += len(session)
	}
	return total
}

func (l *MemoryLedger) pruneLocked(now int64) {
	if l.retention <= 0 {
		return
	}

	cutoff := now - int64(l.retention/time.Second)
	for sessionID, session := range l.sessions {
		for signature, entry := range session {
			if entry.recordedAt < cutoff {
				delete(session, signature)
			}
		}
		if len(session) == 0 {
			delete(l.sessions, sessionID)
		}
	}
}
