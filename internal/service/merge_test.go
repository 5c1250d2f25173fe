package service

import (
	"errors"
	"testing"
	"time"

	"github.com/and161185/cardkeeper/internal/errs"
	"github.com/and161185/cardkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

func baseCard() model.Card {
	return model.Card{
		ID:          7,
		Name:        "Fix login",
		Description: "old",
		Color:       "#FF0000",
		Code:        "Fix login_#FF0000",
		Status:      model.StatusTodo,
		Active:      true,
		OwnerID:     uuid.Must(uuid.NewV4()),
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMerge_Empty(t *testing.T) {
	cur := baseCard()
	editor := uuid.Must(uuid.NewV4())
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	next, err := Merge(cur, model.CardRequest{}, editor, now)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if next.Name != cur.Name || next.Color != cur.Color || next.Description != cur.Description ||
		next.Status != cur.Status || next.Code != cur.Code || next.Active != cur.Active {
		t.Fatalf("empty request changed fields: %+v", next)
	}
	if next.UpdatedBy.UUID != editor || !next.UpdatedAt.Equal(now) {
		t.Fatalf("stamps: %+v %v", next.UpdatedBy, next.UpdatedAt)
	}
}

func TestMerge_AllFields(t *testing.T) {
	cur := baseCard()
	next, err := Merge(cur, model.CardRequest{
		Name: str("Ship"), Color: str("#00ff00"), Description: str(""), Status: str("done"),
	}, uuid.Nil, time.Now())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if next.Name != "Ship" || next.Color != "#00ff00" || next.Description != "" || next.Status != model.StatusDone {
		t.Fatalf("merge result: %+v", next)
	}
	if next.Code != "Ship_#00ff00" {
		t.Fatalf("code = %q", next.Code)
	}
	if next.OwnerID != cur.OwnerID || next.ID != cur.ID || !next.CreatedAt.Equal(cur.CreatedAt) {
		t.Fatal("immutable fields changed")
	}
}

func TestMerge_Invalid(t *testing.T) {
	cur := baseCard()
	for name, req := range map[string]model.CardRequest{
		"blank name": {Name: str("\t")},
		"bad color":  {Color: str("#12345")},
		"bad status": {Status: str("closed")},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := Merge(cur, req, uuid.Nil, time.Now())
			if !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
			if got.UpdatedAt != nil {
				t.Fatal("rejected merge must return the current card")
			}
		})
	}
}
