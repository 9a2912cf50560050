// Package formguard issues and verifies anti-forgery tokens for form
// submissions. A token binds an issue timestamp, a caller-supplied context
// (target URL, user identity) and a server secret into a single opaque
// string; Validate later recomputes the binding to decide whether an
// inbound request carries a token the server could only have issued
// itself, recently, for the same context.
//
// The package is designed for concurrent server workloads: Guard methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// formguard is the public surface. It exposes [Guard], [Builder],
// [Config], the [ValidationResult] taxonomy, and the [ReplayLedger]
// collaborator interface. HTTP glue lives in the middleware sub-package;
// the core never reads requests, sessions, or cookies itself, and callers
// always pass the parsed field map explicitly.
//
// # What this package must NOT do
//
//   - Manage user sessions or perform authentication.
//   - Encrypt the token payload; the scheme authenticates, it does not
//     hide. The issue timestamp travels in cleartext.
//   - Raise panics for attacker-supplied input. Missing fields, bad
//     encodings, and forged signatures are expected adversarial inputs
//     and resolve to an ordinary [ValidationResult].
//
// # Performance contract
//
// Issue and stateless Validate are synchronous CPU-bound hashing with no
// I/O. Stateful Validate is allowed one ledger round-trip per call, and
// only after the signature has been verified.
package formguard
