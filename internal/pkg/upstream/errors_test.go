package upstream

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func TestStatusErrorFormat(t *testing.T) {
	err := NewStatusError("imagekit delete", 404, []byte(`{"message":"not found"}`))
	if !strings.Contains(err.Error(), "status=404") || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("unexpected message: %v", err)
	}
	wrapped := errors.Join(errors.New("outer"), err)
	if Status(wrapped) != 404 {
		t.Fatalf("Status = %d, want 404", Status(wrapped))
	}
	if Status(errors.New("plain")) != 0 {
		t.Fatal("plain errors carry no status")
	}
}

func TestClassifyTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := Classify(ctx, "imagekit", context.DeadlineExceeded)
	if !errors.Is(err, ErrTimeout) || !IsTransport(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestClassifyNetwork(t *testing.T) {
	err := Classify(context.Background(), "firebase", &net.OpError{Op: "dial", Err: errors.New("refused")})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}

	err = Classify(context.Background(), "firebase", errors.New("bad url"))
	if IsTransport(err) {
		t.Fatalf("plain request errors are not transport errors: %v", err)
	}
}
