package httpserver

import (
	"context"
	"testing"

	"github.com/and161185/cardkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

func TestWithCaller_And_CallerFromCtx(t *testing.T) {
	t.Parallel()

	if _, ok := CallerFromCtx(context.Background()); ok {
		t.Fatalf("expected no caller in empty ctx")
	}

	want := model.Caller{ID: uuid.Must(uuid.NewV4()), Role: model.RoleAdmin}
	got, ok := CallerFromCtx(WithCaller(context.Background(), want))
	if !ok || got != want {
		t.Fatalf("got %+v (%v), want %+v", got, ok, want)
	}

	bad := context.WithValue(context.Background(), callerKey, "not-a-caller")
	if _, ok := CallerFromCtx(bad); ok {
		t.Fatalf("expected type mismatch to be rejected")
	}
}
