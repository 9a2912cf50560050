// Package middleware contains HTTP glue for formguard. It parses request
// forms, scopes the replay ledger to a session cookie, and rejects
// state-changing requests that fail validation. The token core itself
// never touches net/http.
package middleware
