package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/and161185/cardkeeper/internal/errs"
	"github.com/and161185/cardkeeper/internal/model"
)

func TestGuard(t *testing.T) {
	ctx := context.Background()
	repo := newMemCards()
	c := &model.Card{Name: "a", Color: "#000001", Code: model.CardCode("a", "#000001")}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	g := NewGuard(repo)

	err := g.CheckNew(ctx, c.Code)
	if !errors.Is(err, errs.ErrConflict) || !strings.Contains(err.Error(), "a_#000001") {
		t.Fatalf("want conflict naming the code, got %v", err)
	}
	if err := g.CheckNew(ctx, "b_#000001"); err != nil {
		t.Fatalf("free code: %v", err)
	}
	if err := g.CheckExisting(ctx, c.Code, c.ID); err != nil {
		t.Fatalf("own code: %v", err)
	}
	if err := g.CheckExisting(ctx, c.Code, c.ID+1); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}

	boom := errors.New("boom")
	repo.existErr = boom
	if err := g.CheckExisting(ctx, "x", 1); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}
