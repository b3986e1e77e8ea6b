package security

import (
	"strings"
	"testing"
)

func TestHashPasswordVerifyRoundTrip(t *testing.T) {
	hash, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "password1" {
		t.Fatal("hash must not equal plaintext")
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("expected PHC argon2id format, got %q", hash)
	}
	if !VerifyPassword(hash, "password1") {
		t.Fatal("expected correct password to verify")
	}
	if VerifyPassword(hash, "password2") {
		t.Fatal("expected wrong password to fail verification")
	}
}

func TestHashPasswordSaltsEveryCall(t *testing.T) {
	a, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyPasswordMalformedHashReturnsFalse(t *testing.T) {
	cases := []struct {
		name    string
		encoded string
	}{
		{name: "empty", encoded: ""},
		{name: "not phc", encoded: "plainhash"},
		{name: "wrong algorithm", encoded: "$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"},
		{name: "bad version", encoded: "$argon2id$v=18$m=65536,t=3,p=4$c2FsdA$aGFzaA"},
		{name: "bad params", encoded: "$argon2id$v=19$m=abc$c2FsdA$aGFzaA"},
		{name: "bad salt encoding", encoded: "$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA"},
		{name: "bad key encoding", encoded: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$!!!"},
		{name: "truncated", encoded: "$argon2id$v=19$m=65536,t=3,p=4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if VerifyPassword(tc.encoded, "password1") {
				t.Fatalf("malformed hash %q must not verify", tc.encoded)
			}
		})
	}
}
