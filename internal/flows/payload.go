package flows

import (
	"github.com/MrEthical07/guardian/internal/validation"
	"github.com/MrEthical07/guardian/jwt"
)

// Payload is the validated content of a bearer: the user id and the opaque
// session token it vouches for.
type Payload struct {
	ID    int64  `json:"id" validate:"gt=0"`
	Token string `json:"token" validate:"required"`
}

// PayloadFromClaims checks that the decoded claims carry a positive numeric
// id and a non-empty string token. Claims of the wrong type decode to zero
// values and fail the same rules.
func PayloadFromClaims(claims *jwt.Claims) (Payload, error) {
	var p Payload
	if claims != nil {
		p.ID, _ = claims.UserID()
		p.Token, _ = claims.SessionToken()
	}
	if err := validation.Struct(&p); err != nil {
		return p, err
	}
	return p, nil
}
