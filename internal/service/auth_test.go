package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestAuthService_RegisterThenLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, Credentials{Username: "alice", Password: "pw123"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected generated user ID")
	}
	if user.PasswordHash == "pw123" || !strings.HasPrefix(user.PasswordHash, "$argon2id$") {
		t.Errorf("expected argon2id digest, got %q", user.PasswordHash)
	}

	token, err := env.auth.Login(ctx, Credentials{Username: "alice", Password: "pw123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	authCtx, err := env.auth.Authenticate("Bearer " + token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if authCtx.UserID != user.ID {
		t.Errorf("token resolves to %q, want %q", authCtx.UserID, user.ID)
	}

	snap := env.recorder.Snapshot()
	if snap.UsersRegistered != 1 || snap.LoginsSucceeded != 1 {
		t.Errorf("unexpected counters: %+v", snap)
	}
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.auth.Register(ctx, Credentials{Username: "alice", Password: "pw123"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err = env.auth.Register(ctx, Credentials{Username: "alice", Password: "other"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	// The first registration's credentials still work.
	token, err := env.auth.Login(ctx, Credentials{Username: "alice", Password: "pw123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	authCtx, err := env.auth.Authenticate("Bearer " + token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if authCtx.UserID != first.ID {
		t.Errorf("expected first user's ID %q, got %q", first.ID, authCtx.UserID)
	}

	if _, err := env.auth.Login(ctx, Credentials{Username: "alice", Password: "other"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("second password must not be accepted, got %v", err)
	}
}

func TestAuthService_RegisterConcurrent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.auth.Register(context.Background(), Credentials{Username: "bob", Password: "pw"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrUsernameTaken):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Errorf("got %d successes and %d conflicts", successes, conflicts)
	}
}

func TestAuthService_RegisterMissingFields(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name string
		in   Credentials
	}{
		{"no_username", Credentials{Password: "pw"}},
		{"no_password", Credentials{Username: "alice"}},
		{"empty", Credentials{}},
		{"blank_username", Credentials{Username: "   ", Password: "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.in)
			if !errors.Is(err, ErrMissingField) {
				t.Errorf("expected ErrMissingField, got %v", err)
			}
		})
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.auth.Register(ctx, Credentials{Username: "alice", Password: "pw123"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name string
		in   Credentials
	}{
		{"wrong_password", Credentials{Username: "alice", Password: "wrongpw"}},
		{"unknown_user", Credentials{Username: "mallory", Password: "pw123"}},
		{"empty_password", Credentials{Username: "alice"}},
		{"empty_username", Credentials{Password: "pw123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := env.auth.Login(ctx, tt.in)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
			if token != "" {
				t.Errorf("expected no token, got %q", token)
			}
		})
	}

	if got := env.recorder.Snapshot().LoginsFailed; got != uint64(len(tests)) {
		t.Errorf("LoginsFailed = %d, want %d", got, len(tests))
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	valid, err := env.issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"valid", "Bearer " + valid, nil},
		{"lowercase_scheme", "bearer " + valid, nil},
		{"missing_header", "", ErrMissingToken},
		{"scheme_only", "Bearer ", ErrMissingToken},
		{"basic_scheme", "Basic dXNlcjpwYXNz", ErrMissingToken},
		{"raw_token_without_scheme", valid, ErrMissingToken},
		{"garbage", "Bearer not-a-token", ErrInvalidToken},
		{"tampered", "Bearer " + tampered, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authCtx, err := env.auth.Authenticate(tt.header)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if authCtx.UserID != "user-1" {
					t.Errorf("UserID = %q, want user-1", authCtx.UserID)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, ErrUnauthorized) {
				t.Errorf("expected error to wrap ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestAuthService_InvalidTokensAreIndistinguishable(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	valid, err := env.issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	parts := strings.Split(valid, ".")
	badSignature := parts[0] + "." + parts[1] + ".c2lnbmF0dXJl"

	_, malformedErr := env.auth.Authenticate("Bearer abc.def")
	_, signatureErr := env.auth.Authenticate("Bearer " + badSignature)

	if malformedErr == nil || signatureErr == nil {
		t.Fatal("expected both tokens to be rejected")
	}
	if malformedErr.Error() != signatureErr.Error() {
		t.Errorf("errors differ: %q vs %q", malformedErr, signatureErr)
	}
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"BEARER abc", "abc"},
		{"Bearer   abc  ", "abc"},
		{"Bearer", ""},
		{"Token abc", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractBearerToken(tt.header); got != tt.want {
			t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
