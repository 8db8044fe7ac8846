package auth

import (
	"errors"
	"testing"
	"time"

	apperrors "messenger/internal/errors"
)

func TestTokenManager_IssueAndResolve(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, err := tm.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	id, err := tm.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != 42 {
		t.Errorf("Resolve = %d; want 42", id)
	}
}

// Every failure mode collapses into ErrInvalidCredentials.
func TestTokenManager_ResolveFailuresAreUniform(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	good, _ := tm.Issue(1)

	expired, err := NewTokenManager("test-secret", -time.Minute).Issue(1)
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}
	forged, err := NewTokenManager("other-secret", time.Hour).Issue(1)
	if err != nil {
		t.Fatalf("issue forged token: %v", err)
	}

	cases := []struct {
		name       string
		credential string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"truncated", good[:len(good)/2]},
		{"expired", expired},
		{"wrong key", forged},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tm.Resolve(tc.credential); !errors.Is(err, apperrors.ErrInvalidCredentials) {
				t.Errorf("Resolve(%s) error = %v; want ErrInvalidCredentials", tc.name, err)
			}
		})
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("password stored in plaintext")
	}

	if !CheckPassword("s3cret", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}
