package infra

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerServesAndShutsDown(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}), ServerTimeouts{
		Read:       5 * time.Second,
		ReadHeader: time.Second,
		Write:      5 * time.Second,
		Idle:       30 * time.Second,
	})

	if got := srv.server.ReadHeaderTimeout; got != time.Second {
		t.Fatalf("read header timeout = %s, want 1s", got)
	}
	if got := srv.server.WriteTimeout; got != 5*time.Second {
		t.Fatalf("write timeout = %s, want 5s", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown before start: %v", err)
	}
	if err := srv.Start(); err != http.ErrServerClosed {
		t.Fatalf("start after shutdown = %v, want ErrServerClosed", err)
	}
}
