package formguard

import "errors"

var (
	// ErrNoSecretKey is an exported constant or variable used by the token guard.
	ErrNoSecretKey = errors.New("no secret key configured")
	// ErrBuilderReused is an exported constant or variable used by the token guard.
	ErrBuilderReused = errors.New("builder already used")
	// ErrLedgerRequired is an exported constant or variable used by the token guard.
	ErrLedgerRequired = errors.New("stateful mode requires a replay ledger")
	// ErrLedgerUnavailable is an exported constant or variable used by the token guard.
	ErrLedgerUnavailable = errors.New("replay ledger unavailable")
)
