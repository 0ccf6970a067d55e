package token

import (
	"errors"
	"testing"
)

func TestGeneratePairAndVerify(t *testing.T) {
	m := NewJWTManager("secret", 1, 1)

	access, refresh, err := m.GeneratePair(42, "alice")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}

	claims, err := m.VerifyToken(access, TypeAccess)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.UserID != 42 || claims.Name != "alice" {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := m.VerifyToken(refresh, TypeRefresh); err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if _, err := m.VerifyToken(refresh, TypeAccess); !errors.Is(err, ErrTokenType) {
		t.Fatalf("refresh used as access: err = %v", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	access, _, err := NewJWTManager("one", 1, 1).GeneratePair(1, "bob")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	if _, err := NewJWTManager("two", 1, 1).VerifyToken(access, TypeAccess); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewJWTManager("secret", 0, 0)
	access, _, err := m.GeneratePair(1, "bob")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	if _, err := m.VerifyToken(access, TypeAccess); err == nil {
		t.Fatal("expected expired token error")
	}
}
