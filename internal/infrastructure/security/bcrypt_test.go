package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/autotradevip/atv-backend/internal/core/domain"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatalf("expected hashed output")
	}
	if err := h.Compare(hash, "secret1"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := h.Compare(hash, "wrong"); err == nil {
		t.Fatalf("expected mismatch")
	}
}

func TestBcryptHasher_Salted(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatalf("expected distinct hashes for the same password")
	}
}

func TestNewBcryptHasher_CostBounds(t *testing.T) {
	cases := map[int]int{
		0:  bcrypt.DefaultCost,
		1:  bcrypt.MinCost,
		12: 12,
		99: bcrypt.MaxCost,
	}
	for in, want := range cases {
		if got := NewBcryptHasher(in).cost; got != want {
			t.Errorf("cost %d: expected %d, got %d", in, want, got)
		}
	}
}

func TestBcryptHasher_PasswordTooLongIsInvalidInput(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	// 40 runes, 80 bytes
	_, err := h.Hash(strings.Repeat("é", 40))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if _, err := h.Hash(strings.Repeat("a", 72)); err != nil {
		t.Fatalf("expected 72 bytes to be accepted, got %v", err)
	}
}
