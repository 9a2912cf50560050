package formguard

import (
	"context"
	"fmt"
	"html"
	"sync/atomic"
	"time"
)

// Guard issues and validates anti-forgery tokens for a fixed binding of
// secret key, context URL, and user data. Construct one through
// [Builder.Build]; the configuration is immutable afterwards, so a single
// Guard can be shared across every request that renders or verifies the
// same form.
type Guard struct {
	config  Config
	codec   tokenCodec
	ledger  ReplayLedger
	clock   Clock
	metrics *Metrics
	audit   AuditSink

	lastError atomic.Value // string
}

// FieldName returns the request-field name tokens are read from.
func (g *Guard) FieldName() string {
	return g.config.FieldName
}

// Stateful reports whether single-use tracking is active.
func (g *Guard) Stateful() bool {
	return g.config.Stateful
}

// Metrics returns the guard's counter set for snapshotting.
func (g *Guard) Metrics() *Metrics {
	return g.metrics
}

/*
====================================
ISSUANCE
====================================
*/

// IssueAt describes the issueat operation and its observable behavior.
//
// IssueAt returns the transport form of a token bound to the configured
// context at the supplied time. It fails with [ErrNoSecretKey] when no
// secret key is configured; that is a fatal misconfiguration, not a
// recoverable validation outcome.
// IssueAt does not mutate shared global state and can be used concurrently
// when the receiver and dependencies are concurrently safe.
func (g *Guard) IssueAt(now time.Time) (string, error) {
	value, err := g.codec.issue(g.config.SecretKey, g.config.ContextURL, g.config.UserData, now.Unix())
	if err != nil {
		return "", err
	}

	g.metrics.Inc(MetricTokenIssued)
	return value, nil
}

// Issue is [Guard.IssueAt] with the injected clock.
func (g *Guard) Issue() (string, error) {
	return g.IssueAt(g.clock())
}

// RenderFieldAt wraps the token issued for the supplied time in a
// hidden-input representation using the configured field name. The token
// value is opaque to the caller; embedding it as a header or cookie
// instead is equally valid.
func (g *Guard) RenderFieldAt(now time.Time) (string, error) {
	value, err := g.IssueAt(now)
	if err != nil {
		return "", err
	}

	markup := `<input type="hidden" name="` + html.EscapeString(g.config.FieldName) +
		`" value="` + html.EscapeString(value) + `">`
	return markup, nil
}

// RenderField is [Guard.RenderFieldAt] with the injected clock.
func (g *Guard) RenderField() (string, error) {
	return g.RenderFieldAt(g.clock())
}

/*
====================================
VALIDATION
====================================
*/

// ValidateAt runs the verification pipeline against the supplied field
// mapping at the supplied time. Stages are evaluated in a fixed order and
// the first matching condition terminates: configuration check, field
// presence, decode, split, signature recomputation with constant-time
// comparison, expiry, then the optional replay check. Expiry and replay
// are only ever reached after cryptographic integrity is confirmed, so a
// forged token cannot probe either behavior.
//
// sessionID scopes the replay ledger and is ignored in stateless mode.
// The returned diagnostic is for operator-side logging only.
//
// ValidateAt never returns an error: malformed or forged input is an
// expected adversarial case and maps to an ordinary result code.
func (g *Guard) ValidateAt(ctx context.Context, sessionID string, fields map[string]string, now time.Time) Validation {
	outcome := g.run(ctx, sessionID, fields, now)

	g.metrics.Inc(resultMetric(outcome.Result))
	if outcome.Result != ResultSuccess {
		g.lastError.Store(outcome.Diagnostic)
		if g.config.Audit.Enabled && g.audit != nil {
			g.audit.Emit(ctx, AuditEvent{
				Timestamp:  now,
				Result:     outcome.Result.String(),
				Diagnostic: outcome.Diagnostic,
				SessionID:  sessionID,
				FieldName:  g.config.FieldName,
			})
		}
	}

	return outcome
}

// Validate is [Guard.ValidateAt] with the injected clock.
func (g *Guard) Validate(ctx context.Context, sessionID string, fields map[string]string) Validation {
	return g.ValidateAt(ctx, sessionID, fields, g.clock())
}

func (g *Guard) run(ctx context.Context, sessionID string, fields map[string]string, now time.Time) Validation {
	if len(g.config.SecretKey) == 0 {
		// Builder refuses this configuration; reachable only through a
		// zero-value Guard, which is still a misconfiguration rather
		// than an attack.
		return Validation{Result: ResultInvalid, Diagnostic: "no secret key configured"}
	}

	if fields == nil {
		return Validation{Result: ResultMissing, Diagnostic: "no field mapping supplied"}
	}

	value, ok := fields[g.config.FieldName]
	if !ok {
		return Validation{Result: ResultMissing, Diagnostic: "token field " + g.config.FieldName + " absent from request"}
	}

	token, diag, ok := g.codec.verify(g.config.SecretKey, g.config.ContextURL, g.config.UserData, value)
	if !ok {
		return Validation{Result: ResultInvalid, Diagnostic: diag}
	}

	// The boundary is inclusive: a token issued exactly MaxAge ago is
	// still valid, one second older is not.
	if token.issuedAt < now.Add(-g.config.MaxAge).Unix() {
		return Validation{Result: ResultExpired, Diagnostic: fmt.Sprintf("token issued at %d exceeded max age", token.issuedAt)}
	}

	if g.config.Stateful {
		if sessionID == "" {
			return Validation{Result: ResultInvalid, Diagnostic: "stateful validation requires a session id"}
		}

		first, err := g.ledger.Record(ctx, sessionID, token.signature)
		if err != nil {
			// Fail closed: an unreachable ledger must not turn replay
			// protection off.
			return Validation{Result: ResultInvalid, Diagnostic: "replay ledger unavailable: " + err.Error()}
		}
		if !first {
			return Validation{Result: ResultReused, Diagnostic: "token signature already used in this session"}
		}
	}

	return Validation{Result: ResultSuccess}
}

// LastError returns the diagnostic of the most recent non-Success
// validation on this Guard, or the empty string when none occurred yet.
// The value is shared across goroutines; prefer the per-call
// [Validation.Diagnostic] in concurrent servers. Not safe to expose to
// end users.
func (g *Guard) LastError() string {
	s, _ := g.lastError.Load().(string)
	return s
}
