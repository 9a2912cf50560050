package formguard

import (
	"crypto/subtle"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

/*
====================================
JWT CODEC (optional encoding)
====================================
*/

// jwtCodec is the alternative "jwt" encoding: an HS256-signed claims set
// carrying the same binding as the hmac wire format (iat, ctx, usr).
// Useful when tokens must be inspected by standard JWT tooling. Expiry is
// still enforced by the validation pipeline from the iat claim, so no exp
// claim is set and claim validation inside the JWT library is disabled.
type jwtCodec struct{}

func (jwtCodec) issue(key []byte, contextURL, userData string, issuedAt int64) (string, error) {
	if len(key) == 0 {
		return "", ErrNoSecretKey
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": issuedAt,
		"ctx": contextURL,
		"usr": userData,
	})

	return token.SignedString(key)
}

func (jwtCodec) verify(key []byte, contextURL, userData, value string) (verifiedToken, string, bool) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)

	parsed, err := parser.Parse(value, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil || !parsed.Valid {
		return verifiedToken{}, "token is not a valid signed jwt", false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return verifiedToken{}, "token carries no claims", false
	}

	issued, ok := claims["iat"].(float64)
	if !ok {
		return verifiedToken{}, "token iat claim missing or non-numeric", false
	}

	ctx, _ := claims["ctx"].(string)
	usr, _ := claims["usr"].(string)

	// Both binding slots are compared even when the first already failed,
	// keeping the comparison time independent of which slot mismatched.
	ctxOK := subtle.ConstantTimeCompare([]byte(ctx), []byte(contextURL)) == 1
	usrOK := subtle.ConstantTimeCompare([]byte(usr), []byte(userData)) == 1
	if !ctxOK || !usrOK {
		return verifiedToken{}, "token context binding mismatch", false
	}

	// The detached signature segment is the replay-ledger key, mirroring
	// the hmac codec.
	segments := strings.Split(value, ".")
	signature := segments[len(segments)-1]

	return verifiedToken{signature: signature, issuedAt: int64(issued)}, "", true
}
