package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"portfolio/internal/models"
)

func testUser() models.PublicUser {
	return models.PublicUser{
		ID:    uuid.New(),
		Email: "dev@example.com",
		Name:  "Dev",
		Role:  models.RoleAdmin,
	}
}

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner([]byte("test-secret"), time.Hour)
	user := testUser()

	token, claims, err := signer.Sign(user, time.Now())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti to be set")
	}

	parsed, err := signer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Subject != user.ID.String() {
		t.Fatalf("subject = %q, want %q", parsed.Subject, user.ID)
	}
	if parsed.Email != user.Email || parsed.Role != user.Role {
		t.Fatalf("claims = %+v", parsed)
	}
	if parsed.Purpose != PurposeAccess {
		t.Fatalf("purpose = %q", parsed.Purpose)
	}
}

func TestSignerRejectsWrongSecret(t *testing.T) {
	token, _, err := NewSigner([]byte("secret-a"), time.Hour).Sign(testUser(), time.Now())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := NewSigner([]byte("secret-b"), time.Hour).Parse(token); err == nil {
		t.Fatal("expected parse to fail with a different secret")
	}
}

func TestSignerRejectsExpired(t *testing.T) {
	signer := NewSigner([]byte("test-secret"), time.Hour)

	// minted far enough in the past that leeway cannot save it
	token, _, err := signer.Sign(testUser(), time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := signer.Parse(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestSignerRejectsMissingClaims(t *testing.T) {
	secret := []byte("test-secret")
	signer := NewSigner(secret, time.Hour)

	mint := func(claims Claims) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
		s, err := tok.SignedString(secret)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	base := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tests := []struct {
		name   string
		claims Claims
	}{
		{
			name: "wrong purpose",
			claims: Claims{
				Purpose:          "refresh",
				RegisteredClaims: base,
			},
		},
		{
			name: "missing jti",
			claims: Claims{
				Purpose: PurposeAccess,
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   base.Subject,
					ExpiresAt: base.ExpiresAt,
				},
			},
		},
		{
			name: "subject not a uuid",
			claims: Claims{
				Purpose: PurposeAccess,
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "not-a-uuid",
					ID:        base.ID,
					ExpiresAt: base.ExpiresAt,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := signer.Parse(mint(tt.claims)); err == nil {
				t.Fatal("expected parse to fail")
			}
		})
	}
}

func TestSignerRejectsUnsignedAlgorithm(t *testing.T) {
	claims := &Claims{
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	unsigned, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewSigner([]byte("test-secret"), time.Hour).Parse(unsigned); err == nil {
		t.Fatal("expected alg=none token to be rejected")
	}
}
