package jwt

import "github.com/golang-jwt/jwt/v5"

// ProfileClaims identifies the calling profile at the API boundary. Session
// management happens upstream; this service only validates the bearer token.
type ProfileClaims struct {
	jwt.RegisteredClaims
	ProfileID int64 `json:"pid"`
	IsJudge   bool  `json:"judge,omitempty"`
	IsStaff   bool  `json:"staff,omitempty"`
}
