package formguard

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
)

// tokenDelimiter separates the positional slots of the signed payload and
// the signature/timestamp halves of the transport form. Bound fields are
// sanitized so the delimiter can never occur inside a slot.
const tokenDelimiter = ":"

// verifiedToken is the outcome of a successful codec verification: the
// signature string used as the replay-ledger key, and the issue timestamp
// claimed by the token itself.
type verifiedToken struct {
	signature string
	issuedAt  int64
}

// tokenCodec turns a (key, binding, timestamp) tuple into a transport
// string and back. verify only establishes cryptographic integrity;
// expiry and replay are the caller's concern.
type tokenCodec interface {
	issue(key []byte, contextURL, userData string, issuedAt int64) (string, error)
	verify(key []byte, contextURL, userData, value string) (verifiedToken, string, bool)
}

/*
====================================
HMAC CODEC (wire format v1)
====================================
*/

// hmacCodec implements the canonical wire format:
//
//	encoded   := base64url( signature || ":" || decimal(issuedAt) )
//	signature := hex( HMAC-SHA256( key, issuedAt || ":" || contextURL || ":" || userData ) )
//
// Missing optional fields serialize as the empty string, still occupying
// their positional slot. The encoded form is self-describing: it carries
// its own timestamp in cleartext, so any frontend holding the same secret
// key can verify a token issued by any other frontend without shared state.
type hmacCodec struct{}

func (hmacCodec) issue(key []byte, contextURL, userData string, issuedAt int64) (string, error) {
	if len(key) == 0 {
		return "", ErrNoSecretKey
	}

	signature := signPayload(key, buildPayload(issuedAt, contextURL, userData))
	raw := signature + tokenDelimiter + strconv.FormatInt(issuedAt, 10)

	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

func (hmacCodec) verify(key []byte, contextURL, userData, value string) (verifiedToken, string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(value, "="))
	if err != nil {
		return verifiedToken{}, "token is not valid base64", false
	}

	parts := strings.SplitN(string(raw), tokenDelimiter, 2)
	if len(parts) != 2 {
		return verifiedToken{}, "token does not split into signature and timestamp", false
	}

	suppliedSignature, suppliedTimestamp := parts[0], parts[1]

	issuedAt, err := strconv.ParseInt(suppliedTimestamp, 10, 64)
	if err != nil {
		return verifiedToken{}, "token timestamp is not a decimal integer", false
	}

	// The signature is recomputed from the timestamp the token claims for
	// itself, not from the server clock. Integrity of the claim is what
	// the comparison establishes.
	expected := signPayload(key, buildPayload(issuedAt, contextURL, userData))
	if subtle.ConstantTimeCompare([]byte(suppliedSignature), []byte(expected)) != 1 {
		return verifiedToken{}, "token signature mismatch", false
	}

	return verifiedToken{signature: suppliedSignature, issuedAt: issuedAt}, "", true
}

// buildPayload joins the bound fields into their canonical serialization.
// Slot order is fixed: timestamp, context URL, user data.
func buildPayload(issuedAt int64, contextURL, userData string) string {
	return strconv.FormatInt(issuedAt, 10) +
		tokenDelimiter + cleanField(contextURL) +
		tokenDelimiter + cleanField(userData)
}

// cleanField keeps the delimiter out of individual payload slots so the
// joined serialization stays unambiguous.
func cleanField(s string) string {
	return strings.ReplaceAll(s, tokenDelimiter, "_")
}

func signPayload(key []byte, payload string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
