package repository

import (
	"context"

	"github.com/and161185/cardkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// MutateFunc receives the locked current state of a card and returns the
// state to persist. Returning an error aborts the update.
type MutateFunc func(cur model.Card) (model.Card, error)

// CardRepository is the card store.
type CardRepository interface {
	// Create inserts a card and fills its ID. A code collision yields errs.ErrConflict.
	Create(ctx context.Context, c *model.Card) error
	// GetByID loads a card or returns errs.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.Card, error)
	// Update applies fn to the card under a row lock and persists the result atomically.
	Update(ctx context.Context, id int64, fn MutateFunc) (*model.Card, error)
	// Delete removes a card permanently.
	Delete(ctx context.Context, id int64) error

	// ExistsByCode reports whether any card carries code.
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// ExistsByCodeExcluding reports whether a card other than id carries code.
	ExistsByCodeExcluding(ctx context.Context, code string, id int64) (bool, error)

	// FindByOwner lists cards owned by owner.
	FindByOwner(ctx context.Context, owner uuid.UUID, p model.PageRequest) (model.Page[model.Card], error)
	// FindByOwnerFiltered lists owned cards matching f.
	FindByOwnerFiltered(ctx context.Context, owner uuid.UUID, f model.CardFilter, p model.PageRequest) (model.Page[model.Card], error)
	// FindAll lists every card.
	FindAll(ctx context.Context, p model.PageRequest) (model.Page[model.Card], error)
	// FindAllFiltered lists every card matching f.
	FindAllFiltered(ctx context.Context, f model.CardFilter, p model.PageRequest) (model.Page[model.Card], error)
}
