package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"propertyops_backend/internal/auth/password"
	"propertyops_backend/internal/auth/repository"
	"propertyops_backend/internal/config"
	"propertyops_backend/platform/logger"
)

func testService() *Service {
	cfg := &config.Config{
		JWTAccessSecret: "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
	return New(nil, cfg, logger.New("test"))
}

func TestSignJWTClaims(t *testing.T) {
	svc := testService()
	user := &repository.User{
		ID:    uuid.New(),
		Email: "ops@example.com",
		Roles: []string{"operator", "admin"},
	}

	signed, err := svc.signJWT(user)
	if err != nil {
		t.Fatalf("signJWT returned error: %v", err)
	}

	parsed, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("parsing signed token: %v", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("expected map claims, got %T", parsed.Claims)
	}
	if claims["sub"] != user.ID.String() {
		t.Errorf("sub = %v, want %s", claims["sub"], user.ID)
	}
	if claims["type"] != "access" {
		t.Errorf("type = %v, want access", claims["type"])
	}
	roles, ok := claims["roles"].([]interface{})
	if !ok || len(roles) != 2 {
		t.Fatalf("roles = %v, want two entries", claims["roles"])
	}
	if roles[0] != "operator" || roles[1] != "admin" {
		t.Errorf("roles = %v, want [operator admin]", roles)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("missing exp claim: %v", err)
	}
	remaining := time.Until(exp.Time)
	if remaining <= 0 || remaining > 15*time.Minute {
		t.Errorf("exp %v outside configured ttl", remaining)
	}
}

func TestNewRefreshTokenUnique(t *testing.T) {
	first, err := newRefreshToken()
	if err != nil {
		t.Fatalf("newRefreshToken: %v", err)
	}
	second, err := newRefreshToken()
	if err != nil {
		t.Fatalf("newRefreshToken: %v", err)
	}
	if first == second {
		t.Error("consecutive refresh tokens should differ")
	}
	if hashToken(first) == hashToken(second) {
		t.Error("hashes of distinct tokens should differ")
	}
	if hashToken(first) != hashToken(first) {
		t.Error("hashing must be deterministic")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hashed, err := password.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !password.Compare(hashed, "correct horse battery staple") {
		t.Error("correct password should match its hash")
	}
	if password.Compare(hashed, "wrong password") {
		t.Error("wrong password should not match")
	}
}
