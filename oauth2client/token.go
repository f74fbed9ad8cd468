package oauth2client

import "time"

// Token is an immutable snapshot of a bearer credential.
//
// A zero Token is "absent": Present reports false and Value returns the empty
// string. Presence is tracked explicitly rather than inferred from an empty
// value string, so an endpoint that ever issued an empty token would still be
// handled consistently.
type Token struct {
	value     string
	expiresAt time.Time
	present   bool
}

// newToken builds a present Token from an access token value and the number
// of seconds until it expires, anchored to now. The expiry is stored as an
// absolute deadline so long-lived processes do not accumulate clock drift.
func newToken(value string, expiresIn int, now time.Time) Token {
	return Token{
		value:     value,
		expiresAt: now.Add(time.Duration(expiresIn) * time.Second),
		present:   true,
	}
}

// Present reports whether the token holds a value.
func (t Token) Present() bool {
	return t.present
}

// Value returns the raw access token, or "" if the token is absent.
func (t Token) Value() string {
	return t.value
}

// ExpiresAt returns the wall-clock instant after which the token must be
// treated as invalid. The zero time is returned for an absent token.
func (t Token) ExpiresAt() time.Time {
	return t.expiresAt
}

// Valid reports whether the token is present and not expired at the given
// instant.
func (t Token) Valid(now time.Time) bool {
	return t.present && now.Before(t.expiresAt)
}

// String returns the token value, mirroring Value. It exists so a Token can
// be formatted directly into an Authorization header.
func (t Token) String() string {
	return t.value
}
