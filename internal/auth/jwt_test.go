package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/folio/folio/internal/model"
)

func testAdmin() *model.AdminUser {
	return &model.AdminUser{
		ID:    primitive.NewObjectID(),
		Email: "admin@example.com",
		Name:  "Admin",
		Role:  model.RoleAdmin,
	}
}

func TestIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer, err := NewIssuer("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	user := testAdmin()

	token, expiresAt, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiresAt %v is not in the future", expiresAt)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != user.ID.Hex() {
		t.Errorf("Subject = %q, want %q", claims.Subject, user.ID.Hex())
	}
	if claims.Email != user.Email || claims.Role != model.RoleAdmin {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestIssuer_Rejects(t *testing.T) {
	t.Parallel()

	issuer, _ := NewIssuer("secret", time.Hour)
	other, _ := NewIssuer("other-secret", time.Hour)
	user := testAdmin()

	forged, _, _ := other.Issue(user)

	expiredIssuer, _ := NewIssuer("secret", time.Minute)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, _ := expiredIssuer.Issue(user)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuerName,
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", forged},
		{"expired", expired},
		{"alg none", unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := issuer.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := NewIssuer("", time.Hour); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("err = %v, want ErrEmptySecret", err)
	}
}

func TestClaimsContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if ClaimsFromContext(ctx) != nil {
		t.Error("expected nil claims on empty context")
	}
	if !AdminIDFromContext(ctx).IsZero() {
		t.Error("expected zero admin id on empty context")
	}

	id := primitive.NewObjectID()
	ctx = ContextWithClaims(ctx, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: id.Hex()}})
	if got := AdminIDFromContext(ctx); got != id {
		t.Errorf("AdminIDFromContext() = %v, want %v", got, id)
	}
}
