package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/metrics"
	"github.com/tasklist/tasklist/internal/store/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testHashParams = auth.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

type testEnv struct {
	store    *memory.Store
	auth     *AuthService
	tasks    *TaskService
	issuer   *auth.TokenIssuer
	recorder *metrics.InMemoryRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: testSecret, KeyID: "1"})
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}

	st := memory.New()
	recorder := metrics.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		store:    st,
		auth:     NewAuthService(st, auth.NewPasswordHasher(testHashParams), issuer, recorder, logger),
		tasks:    NewTaskService(st, recorder, logger),
		issuer:   issuer,
		recorder: recorder,
	}
}
