package gateway

import (
	"errors"
	"testing"

	"deckbridge/internal/domain"
)

func TestStaticTokenAuthValid(t *testing.T) {
	auth := NewStaticTokenAuth("secret-123")

	if err := auth.Authenticate("secret-123"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
}

func TestStaticTokenAuthInvalid(t *testing.T) {
	auth := NewStaticTokenAuth("secret-123")

	err := auth.Authenticate("wrong-token")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrGatewayAuthFailed) {
		t.Errorf("err = %v, want ErrGatewayAuthFailed", err)
	}
}

func TestStaticTokenAuthEmptyRejectsAll(t *testing.T) {
	auth := NewStaticTokenAuth("")

	if err := auth.Authenticate(""); err == nil {
		t.Fatal("expected error for empty configured token")
	}
	if err := auth.Authenticate("anything"); err == nil {
		t.Fatal("expected error for empty configured token")
	}
}
