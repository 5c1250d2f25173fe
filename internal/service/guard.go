package service

import (
	"context"
	"fmt"

	"github.com/and161185/cardkeeper/internal/errs"
)

// CodeChecker looks up derived card codes.
type CodeChecker interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
	ExistsByCodeExcluding(ctx context.Context, code string, id int64) (bool, error)
}

// Guard rejects card codes that are already taken. It is an early check;
// the unique index on cards.code is what holds under concurrent writers.
type Guard struct{ codes CodeChecker }

// NewGuard constructs a Guard over codes.
func NewGuard(codes CodeChecker) Guard { return Guard{codes: codes} }

// CheckNew fails with errs.ErrConflict if any card carries code.
func (g Guard) CheckNew(ctx context.Context, code string) error {
	taken, err := g.codes.ExistsByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("check code: %w", err)
	}
	if taken {
		return conflict(code)
	}
	return nil
}

// CheckExisting is CheckNew that ignores the card being updated.
func (g Guard) CheckExisting(ctx context.Context, code string, id int64) error {
	taken, err := g.codes.ExistsByCodeExcluding(ctx, code, id)
	if err != nil {
		return fmt.Errorf("check code: %w", err)
	}
	if taken {
		return conflict(code)
	}
	return nil
}

func conflict(code string) error {
	return fmt.Errorf("%w: card %q already exists, choose a unique name or color", errs.ErrConflict, code)
}
