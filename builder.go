package formguard

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by formguard APIs.
//
// Builder instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	ledger ReplayLedger
	clock  Clock
	audit  AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently
// when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecretKey sets the HMAC key shared by all issuing frontends.
func (b *Builder) WithSecretKey(key []byte) *Builder {
	b.config.SecretKey = cloneBytes(key)
	return b
}

// WithContextURL sets the optional context-URL binding field.
func (b *Builder) WithContextURL(url string) *Builder {
	b.config.ContextURL = url
	return b
}

// WithUserData sets the optional user-data binding field.
func (b *Builder) WithUserData(data string) *Builder {
	b.config.UserData = data
	return b
}

// WithStateful enables single-use tracking. Stateful mode needs a replay
// ledger from [Builder.WithLedger] or [Builder.WithRedis].
func (b *Builder) WithStateful() *Builder {
	b.config.Stateful = true
	return b
}

// WithMaxAge sets how long issued tokens stay valid.
func (b *Builder) WithMaxAge(maxAge time.Duration) *Builder {
	b.config.MaxAge = maxAge
	return b
}

// WithFieldName overrides the request-field name tokens are read from.
func (b *Builder) WithFieldName(name string) *Builder {
	b.config.FieldName = name
	return b
}

// WithEncoding selects the wire codec, "hmac" or "jwt".
func (b *Builder) WithEncoding(encoding string) *Builder {
	b.config.Encoding = encoding
	return b
}

// WithRedis supplies a Redis client for the replay ledger. Ignored when
// an explicit ledger is also configured.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLedger supplies an explicit replay ledger, taking precedence over
// [Builder.WithRedis].
func (b *Builder) WithLedger(ledger ReplayLedger) *Builder {
	b.ledger = ledger
	return b
}

// WithClock overrides the time source used by Issue and Validate.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithAuditSink enables audit events for rejected validations and routes
// them to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.audit = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its
// observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation or dependency checks fail.
// The returned Guard is immutable and safe for concurrent use.
func (b *Builder) Build() (*Guard, error) {
	if b.built {
		return nil, ErrBuilderReused
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var codec tokenCodec
	switch cfg.Encoding {
	case "jwt":
		codec = jwtCodec{}
	default:
		codec = hmacCodec{}
	}

	ledger := b.ledger
	if cfg.Stateful && ledger == nil {
		if b.redis == nil {
			return nil, ErrLedgerRequired
		}
		ledger = NewRedisLedger(b.redis, cfg.LedgerPrefix, cfg.MaxAge)
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	audit := b.audit
	if audit == nil {
		audit = NoOpSink{}
	}

	guard := &Guard{
		config:  cfg,
		codec:   codec,
		ledger:  ledger,
		clock:   clock,
		metrics: NewMetrics(cfg.Metrics),
		audit:   audit,
	}

	b.built = true

	return guard, nil
}
