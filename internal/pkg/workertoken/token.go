// Package workertoken does an unauthenticated decode of the worker's
// bearer token to read its expiry. The worker's startup path does not
// call it, so no expiry is logged and no pre-flight check runs. The queue
// service is the one that actually verifies the signature; the worker
// never needs to, so the JWT is parsed without a key and only the
// claims are read.
package workertoken

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expiry parses token without verifying its signature and returns the
// exp claim, if present. found is false when the token has no exp
// claim or fails to parse as a JWT at all.
func Expiry(token string) (exp time.Time, found bool) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	expClaim, err := claims.GetExpirationTime()
	if err != nil || expClaim == nil {
		return time.Time{}, false
	}
	return expClaim.Time, true
}
