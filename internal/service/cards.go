package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/cardkeeper/internal/errs"
	"github.com/and161185/cardkeeper/internal/model"
	"github.com/and161185/cardkeeper/internal/repository"
)

// CardService defines the card operations available to an authenticated caller.
type CardService interface {
	// Create validates req and stores a new TODO card owned by caller.
	Create(ctx context.Context, caller model.Caller, req model.CardRequest) (*model.Card, error)
	// List returns the cards caller may see that match fp.
	List(ctx context.Context, caller model.Caller, fp model.FilterParams, p model.PageRequest) (model.Page[model.Card], error)
	// Get returns a single card.
	Get(ctx context.Context, caller model.Caller, id int64) (*model.Card, error)
	// Update merges the present fields of req into the card.
	Update(ctx context.Context, caller model.Caller, id int64, req model.CardRequest) (*model.Card, error)
	// SetActive activates or deactivates the card.
	SetActive(ctx context.Context, caller model.Caller, id int64, active bool) (*model.Card, error)
	// Delete removes the card permanently.
	Delete(ctx context.Context, caller model.Caller, id int64) error
}

type CardServiceImpl struct {
	repo     repository.CardRepository
	guard    Guard
	resolver Resolver
	log      *zap.Logger
	now      func() time.Time
}

var _ CardService = (*CardServiceImpl)(nil)

// NewCardService constructs CardService; zero sizes fall back to the package defaults.
func NewCardService(repo repository.CardRepository, log *zap.Logger, defaultSize, maxSize int) *CardServiceImpl {
	return &CardServiceImpl{
		repo:     repo,
		guard:    NewGuard(repo),
		resolver: Resolver{DefaultSize: defaultSize, MaxSize: maxSize},
		log:      log.Named("cards"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new card with status TODO and active set.
func (s *CardServiceImpl) Create(ctx context.Context, caller model.Caller, req model.CardRequest) (*model.Card, error) {
	var name, color, desc string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Color != nil {
		color = *req.Color
	}
	if req.Description != nil {
		desc = *req.Description
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateColor(color); err != nil {
		return nil, err
	}

	code := model.CardCode(name, color)
	if err := s.guard.CheckNew(ctx, code); err != nil {
		return nil, err
	}

	card := &model.Card{
		Name:        name,
		Description: desc,
		Color:       color,
		Code:        code,
		Status:      model.StatusTodo,
		Active:      true,
		OwnerID:     caller.ID,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, card); err != nil {
		return nil, err
	}
	s.log.Info("card created",
		zap.Int64("card_id", card.ID),
		zap.String("code", card.Code),
		zap.Stringer("caller", caller.ID),
	)
	return card, nil
}

// List resolves the caller's scope and filters, then queries the store.
func (s *CardServiceImpl) List(ctx context.Context, caller model.Caller, fp model.FilterParams, p model.PageRequest) (model.Page[model.Card], error) {
	plan, err := s.resolver.Resolve(fp, caller, p)
	if err != nil {
		return model.Page[model.Card]{}, err
	}
	return plan.Run(ctx, s.repo)
}

// Get loads a card the caller owns, or any card for admins.
func (s *CardServiceImpl) Get(ctx context.Context, caller model.Caller, id int64) (*model.Card, error) {
	card, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(*card, caller) {
		return nil, s.deny(caller, id, "view")
	}
	return card, nil
}

// Update authorizes, merges and re-checks the code under a row lock.
func (s *CardServiceImpl) Update(ctx context.Context, caller model.Caller, id int64, req model.CardRequest) (*model.Card, error) {
	card, err := s.repo.Update(ctx, id, func(cur model.Card) (model.Card, error) {
		if !CanMutate(cur, caller) {
			return cur, s.deny(caller, id, "update")
		}
		next, err := Merge(cur, req, caller.ID, s.now())
		if err != nil {
			return cur, err
		}
		if next.Code != cur.Code {
			if err := s.guard.CheckExisting(ctx, next.Code, id); err != nil {
				return cur, err
			}
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("card updated",
		zap.Int64("card_id", card.ID),
		zap.String("code", card.Code),
		zap.Stringer("caller", caller.ID),
	)
	return card, nil
}

// SetActive flips the active flag.
func (s *CardServiceImpl) SetActive(ctx context.Context, caller model.Caller, id int64, active bool) (*model.Card, error) {
	card, err := s.repo.Update(ctx, id, func(cur model.Card) (model.Card, error) {
		if !CanMutate(cur, caller) {
			return cur, s.deny(caller, id, "set active")
		}
		now := s.now()
		cur.Active = active
		cur.UpdatedBy.UUID, cur.UpdatedBy.Valid = caller.ID, true
		cur.UpdatedAt = &now
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("card active changed",
		zap.Int64("card_id", card.ID),
		zap.Bool("active", active),
		zap.Stringer("caller", caller.ID),
	)
	return card, nil
}

// Delete removes a card after checking ownership.
func (s *CardServiceImpl) Delete(ctx context.Context, caller model.Caller, id int64) error {
	card, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanMutate(*card, caller) {
		return s.deny(caller, id, "delete")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("card deleted", zap.Int64("card_id", id), zap.Stringer("caller", caller.ID))
	return nil
}

func (s *CardServiceImpl) deny(caller model.Caller, id int64, action string) error {
	s.log.Debug("access denied",
		zap.Int64("card_id", id),
		zap.String("action", action),
		zap.Stringer("caller", caller.ID),
		zap.Stringer("role", caller.Role),
	)
	return fmt.Errorf("%w: you don't have permission to %s this card", errs.ErrForbidden, action)
}
