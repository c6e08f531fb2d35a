package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/guardian/jwt"
)

// TokenDeps captures dependencies for issuing and revoking tokens outside
// the attempt flow.
type TokenDeps struct {
	ParseBearer      func(string) (*jwt.Claims, error)
	CreateToken      func(context.Context, int64) (string, error)
	DeleteToken      func(context.Context, int64, string) error
	DeleteAllForUser func(context.Context, int64) error
	SignBearer       func(int64, string) (string, error)

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, userID int64, err error)

	TokenCreatedMetric int
	TokenRevokedMetric int
	RevokeEvent        string
	RevokeAllEvent     string

	TokenStoreUnavailable error
	Validation            error
}

func (d *TokenDeps) defaults() {
	if d.MetricInc == nil {
		d.MetricInc = func(int) {}
	}
	if d.EmitAudit == nil {
		d.EmitAudit = func(context.Context, string, bool, int64, error) {}
	}
}

// RunIssue mints a token and bearer for an already authenticated user.
func RunIssue(ctx context.Context, userID int64, deps TokenDeps) (bearer, token string, err error) {
	deps.defaults()

	token, err = deps.CreateToken(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", deps.TokenStoreUnavailable, err)
	}
	deps.MetricInc(deps.TokenCreatedMetric)

	bearer, err = deps.SignBearer(userID, token)
	if err != nil {
		if deps.DeleteToken != nil {
			_ = deps.DeleteToken(ctx, userID, token)
		}
		return "", "", err
	}
	return bearer, token, nil
}

// RunRevoke deletes the opaque token carried by bearer. The bearer must
// still verify.
func RunRevoke(ctx context.Context, bearer string, deps TokenDeps) (int64, error) {
	deps.defaults()

	claims, err := deps.ParseBearer(bearer)
	if err != nil {
		return 0, err
	}
	payload, err := PayloadFromClaims(claims)
	if err != nil {
		return 0, joinErr(deps.Validation, err)
	}

	if err := deps.DeleteToken(ctx, payload.ID, payload.Token); err != nil {
		return payload.ID, fmt.Errorf("%w: %v", deps.TokenStoreUnavailable, err)
	}
	deps.MetricInc(deps.TokenRevokedMetric)
	deps.EmitAudit(ctx, deps.RevokeEvent, true, payload.ID, nil)
	return payload.ID, nil
}

// RunRevokeAll deletes every token of userID.
func RunRevokeAll(ctx context.Context, userID int64, deps TokenDeps) error {
	deps.defaults()

	if err := deps.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", deps.TokenStoreUnavailable, err)
	}
	deps.MetricInc(deps.TokenRevokedMetric)
	deps.EmitAudit(ctx, deps.RevokeAllEvent, true, userID, nil)
	return nil
}
