package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"portfolio/internal/models"
)

// PurposeAccess marks tokens minted for interactive sessions. The purpose
// claim keeps access tokens distinct from any future token type issued
// with the same secret.
const PurposeAccess = "access"

// clockSkew absorbs drift between servers validating each other's tokens.
const clockSkew = 30 * time.Second

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenClaims  = errors.New("token is missing required claims")
)

// Claims is the payload carried by an access token.
type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Signer mints and verifies HS256 access tokens. The algorithm is pinned
// at parse time so a token cannot negotiate its own verification method.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner returns a Signer with the given symmetric secret and token
// lifetime. A non-positive ttl falls back to 24 hours.
func NewSigner(secret []byte, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: secret, ttl: ttl}
}

// TTL is the lifetime applied to newly minted tokens.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign mints a token for the given user. Each call produces a fresh jti,
// so re-login never resurrects an earlier token.
func (s *Signer) Sign(u models.PublicUser, now time.Time) (string, *Claims, error) {
	claims := &Claims{
		Email:   u.Email,
		Name:    u.Name,
		Role:    u.Role,
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse verifies signature and expiry and checks that the claims required
// by the access gate are present. It never touches the database.
func (s *Signer) Parse(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkew),
		jwt.WithExpirationRequired(),
	)

	var claims Claims
	token, err := parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" || claims.ID == "" || claims.Purpose != PurposeAccess {
		return nil, ErrTokenClaims
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, ErrTokenClaims
	}

	return &claims, nil
}
