package formguard

import "time"

// ValidationResult classifies the outcome of a single Validate call.
// Exactly one value is produced per call, never a composite.
type ValidationResult uint8

const (
	// ResultSuccess is an exported constant or variable used by the token guard.
	ResultSuccess ValidationResult = iota
	// ResultInvalid is an exported constant or variable used by the token guard.
	ResultInvalid
	// ResultExpired is an exported constant or variable used by the token guard.
	ResultExpired
	// ResultMissing is an exported constant or variable used by the token guard.
	ResultMissing
	// ResultReused is an exported constant or variable used by the token guard.
	ResultReused
)

// String describes the string operation and its observable behavior.
//
// String does not mutate shared global state and can be used concurrently
// when the receiver and dependencies are concurrently safe.
func (r ValidationResult) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultInvalid:
		return "invalid"
	case ResultExpired:
		return "expired"
	case ResultMissing:
		return "missing"
	case ResultReused:
		return "reused"
	default:
		return "unknown"
	}
}

// Validation is returned by [Guard.Validate] and [Guard.ValidateAt]. It
// pairs the result code with a human-readable diagnostic for operator-side
// logging. The diagnostic names the exact rejection stage and must not be
// shown to end users; it would help an attacker refine a forgery.
type Validation struct {
	Result     ValidationResult
	Diagnostic string
}

// OK reports whether the validation succeeded.
func (v Validation) OK() bool {
	return v.Result == ResultSuccess
}

// Clock supplies the current time to Issue and Validate. Injecting one
// makes token lifetimes deterministic in tests; production code uses
// [time.Now].
type Clock func() time.Time
