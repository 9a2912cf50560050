package formguard

import (
	"errors"
	"strings"
	"time"
)

// DefaultFieldName is the reserved request-field name tokens are read
// from when [Config.FieldName] is left empty. Applications embedding the
// rendered hidden input must not reuse this name for their own fields.
const DefaultFieldName = "__anti_forgery_token"

// Config defines a public type used by formguard APIs.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Config struct {
	// SecretKey is the HMAC key shared by every frontend that issues or
	// verifies tokens. Required; Build fails without it.
	SecretKey []byte

	// ContextURL is an optional binding field, typically the form's
	// submission target. Tokens issued under one ContextURL never verify
	// under another.
	ContextURL string

	// UserData is an optional binding field, typically a user or session
	// identifier.
	UserData string

	// MaxAge is how long an issued token stays valid. A token issued at
	// time T is accepted up to and including T+MaxAge.
	MaxAge time.Duration

	// Stateful enables single-use tracking through a replay ledger.
	Stateful bool

	// FieldName is the request-field name tokens are read from.
	FieldName string

	// Encoding selects the wire codec: "hmac" (default) or "jwt".
	Encoding string

	// LedgerPrefix namespaces replay-ledger keys in shared backends.
	LedgerPrefix string

	Metrics MetricsConfig
	Audit   AuditConfig
}

// MetricsConfig defines a public type used by formguard APIs.
//
// MetricsConfig instances are intended to be configured during initialization
// and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

// AuditConfig defines a public type used by formguard APIs.
//
// AuditConfig instances are intended to be configured during initialization
// and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		MaxAge:       time.Hour,
		Stateful:     false,
		FieldName:    DefaultFieldName,
		Encoding:     "hmac",
		LedgerPrefix: "fg",
		Metrics: MetricsConfig{
			Enabled: false,
		},
		Audit: AuditConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.SecretKey = cloneBytes(cfg.SecretKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation fails.
// Validate does not mutate shared global state and can be used concurrently
// when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if len(c.SecretKey) == 0 {
		return ErrNoSecretKey
	}

	if c.MaxAge < 0 {
		return errors.New("MaxAge must be >= 0")
	}

	if strings.TrimSpace(c.FieldName) == "" {
		return errors.New("FieldName must not be blank")
	}

	if c.Encoding != "hmac" && c.Encoding != "jwt" {
		return errors.New("Encoding must be 'hmac' or 'jwt'")
	}

	if c.LedgerPrefix == "" {
		return errors.New("LedgerPrefix must not be empty")
	}

	return nil
}
