package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the shortest accepted HMAC secret.
const MinSecretLen = 32

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid identity token")

// Claims are the identity token's claims. The subject is the user id.
type Claims struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	SchoolID  string `json:"school_id"`
	StudentID string `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

// IdentityVerifier checks HS256 identity tokens issued by the identity
// provider.
type IdentityVerifier struct {
	secret []byte
	issuer string
}

// NewIdentityVerifier returns a verifier for secret. A non-empty issuer is
// required to match the token's iss claim.
func NewIdentityVerifier(secret, issuer string) (*IdentityVerifier, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("identity secret must be at least %d characters", MinSecretLen)
	}
	return &IdentityVerifier{secret: []byte(secret), issuer: issuer}, nil
}

// Verify parses raw and returns the actor it names.
func (v *IdentityVerifier) Verify(raw string) (models.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var c Claims
	tok, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return models.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	a := models.Actor{
		ID:        strings.TrimSpace(c.Subject),
		Name:      c.Name,
		Role:      strings.ToLower(strings.TrimSpace(c.Role)),
		SchoolID:  strings.TrimSpace(c.SchoolID),
		StudentID: strings.TrimSpace(c.StudentID),
	}
	switch {
	case a.ID == "":
		return models.Actor{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	case !models.ValidRole(a.Role):
		return models.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, c.Role)
	case a.SchoolID == "":
		return models.Actor{}, fmt.Errorf("%w: missing school", ErrInvalidToken)
	case a.Role == models.RoleStudent && a.StudentID == "":
		return models.Actor{}, fmt.Errorf("%w: student token without student id", ErrInvalidToken)
	}
	return a, nil
}

// Issue signs a token for actor valid for ttl. The server uses it for demo
// sign-in links; production tokens come from the identity provider.
func (v *IdentityVerifier) Issue(actor models.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		Name:      actor.Name,
		Role:      actor.Role,
		SchoolID:  actor.SchoolID,
		StudentID: actor.StudentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
