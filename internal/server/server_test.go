package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"
)

func newTestServer(t *testing.T) (*Server, net.Listener) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(handler, Config{
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}, logger), ln
}

func TestServer_ServesAndShutsDownInReverseOrder(t *testing.T) {
	srv, ln := newTestServer(t)

	var order []string
	srv.OnShutdown("store", func(ctx context.Context) error {
		order = append(order, "store")
		return nil
	})
	srv.OnShutdown("cache", func(ctx context.Context) error {
		order = append(order, "cache")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	if len(order) != 2 || order[0] != "cache" || order[1] != "store" {
		t.Errorf("shutdown order = %v, want [cache store]", order)
	}
}

func TestServer_ShutdownErrorsAreReturned(t *testing.T) {
	srv, ln := newTestServer(t)

	boom := errors.New("close failed")
	srv.OnShutdown("store", func(ctx context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Serve(ctx, ln)
	if !errors.Is(err, boom) {
		t.Errorf("expected shutdown error to wrap %v, got %v", boom, err)
	}
}
