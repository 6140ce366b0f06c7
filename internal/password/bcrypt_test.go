package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	b := NewBcrypt(bcrypt.MinCost)

	hash, err := b.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "s3cret" || !strings.HasPrefix(hash, "$2a$") {
		t.Fatalf("unexpected hash %q", hash)
	}

	if !b.Verify("s3cret", hash) {
		t.Fatal("correct password rejected")
	}
	if b.Verify("wrong", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestVerifyGarbageHash(t *testing.T) {
	b := NewBcrypt(bcrypt.MinCost)
	if b.Verify("anything", "not a bcrypt hash") {
		t.Fatal("garbage hash must not verify")
	}
}

func TestNewBcryptCostFallback(t *testing.T) {
	if got := NewBcrypt(-1).cost; got != DefaultCost {
		t.Fatalf("cost = %d, want %d", got, DefaultCost)
	}
	if got := NewBcrypt(bcrypt.MaxCost + 1).cost; got != DefaultCost {
		t.Fatalf("cost = %d, want %d", got, DefaultCost)
	}
	if got := NewBcrypt(12).cost; got != 12 {
		t.Fatalf("cost = %d, want 12", got)
	}
}

func TestHashesAreSalted(t *testing.T) {
	b := NewBcrypt(bcrypt.MinCost)
	h1, err := b.Hash("same input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := b.Hash("same input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password must differ")
	}
}
