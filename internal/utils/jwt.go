// Package utils provides helpers for issuing staff access tokens. There is
// no account database: staff tokens are minted out of band with the
// tokengen command and verified by the API middleware with the shared
// secret.
package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaffToken is a signed JWT access token along with its expiry. The Token
// field is sent as the Bearer credential on the management API.
type StaffToken struct {
	Token string
	Exp   time.Time
}

// NewStaffToken builds and signs an HS256 JWT identifying a staff member.
// The subject carries the stable user id and the name claim the display
// name used on bookings taken through the API.
func NewStaffToken(secret, userID, name string, ttl time.Duration) (StaffToken, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := jwt.MapClaims{
		"sub":  userID,
		"name": name,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return StaffToken{}, err
	}
	return StaffToken{Token: signed, Exp: exp}, nil
}
