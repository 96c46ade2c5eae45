package apiclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quantfold/tradekit/internal/apierrors"
)

// TokenExpiry reads the exp claim from an access token without verifying its
// signature. Tokens stay opaque for authorization purposes; this exists only
// so logs can say when a stored session will lapse.
func TokenExpiry(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, apierrors.Wrapf(apierrors.ErrDecode, "[TokenExpiry] parse: %v", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, apierrors.Wrapf(apierrors.ErrDecode, "[TokenExpiry] no exp claim")
	}
	return exp.Time, nil
}
