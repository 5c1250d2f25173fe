package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/and161185/cardkeeper/internal/errs"
	"github.com/and161185/cardkeeper/internal/model"
	"github.com/and161185/cardkeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

const dateLayout = "2006-01-02"

// Paging defaults applied by the resolver.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// scope limits a listing to the cards a role may see.
type scope interface {
	find(ctx context.Context, repo repository.CardRepository, f *model.CardFilter, p model.PageRequest) (model.Page[model.Card], error)
}

// ownerScope is the MEMBER view: own cards only.
type ownerScope struct{ owner uuid.UUID }

func (s ownerScope) find(ctx context.Context, repo repository.CardRepository, f *model.CardFilter, p model.PageRequest) (model.Page[model.Card], error) {
	if f == nil {
		return repo.FindByOwner(ctx, s.owner, p)
	}
	return repo.FindByOwnerFiltered(ctx, s.owner, *f, p)
}

// globalScope is the ADMIN view: every card.
type globalScope struct{}

func (globalScope) find(ctx context.Context, repo repository.CardRepository, f *model.CardFilter, p model.PageRequest) (model.Page[model.Card], error) {
	if f == nil {
		return repo.FindAll(ctx, p)
	}
	return repo.FindAllFiltered(ctx, *f, p)
}

// QueryPlan is a resolved listing: owner scope, optional predicate and paging.
type QueryPlan struct {
	scope  scope
	Filter *model.CardFilter // nil when no filter field was supplied
	Page   model.PageRequest
}

// Owner returns the owner the plan is restricted to, if any.
func (q QueryPlan) Owner() (uuid.UUID, bool) {
	s, ok := q.scope.(ownerScope)
	return s.owner, ok
}

// Run executes the plan against repo.
func (q QueryPlan) Run(ctx context.Context, repo repository.CardRepository) (model.Page[model.Card], error) {
	return q.scope.find(ctx, repo, q.Filter, q.Page)
}

// Resolver turns caller filters and role into a QueryPlan.
type Resolver struct {
	DefaultSize int
	MaxSize     int
}

// Resolve validates filters and paging and picks the scope for caller's role.
func (r Resolver) Resolve(fp model.FilterParams, caller model.Caller, p model.PageRequest) (QueryPlan, error) {
	var sc scope
	switch caller.Role {
	case model.RoleMember:
		sc = ownerScope{owner: caller.ID}
	case model.RoleAdmin:
		sc = globalScope{}
	default:
		return QueryPlan{}, fmt.Errorf("%w: role %s may not list cards", errs.ErrForbidden, caller.Role)
	}

	page, err := r.page(p)
	if err != nil {
		return QueryPlan{}, err
	}
	plan := QueryPlan{scope: sc, Page: page}
	if fp.IsEmpty() {
		return plan, nil
	}

	f := model.CardFilter{Name: fp.Name, Color: fp.Color}
	if fp.Status != nil {
		st, err := model.ParseStatus(*fp.Status)
		if err != nil {
			return QueryPlan{}, err
		}
		f.Status = &st
	}
	if fp.CreatedDate != nil {
		day, err := time.Parse(dateLayout, strings.TrimSpace(*fp.CreatedDate))
		if err != nil {
			return QueryPlan{}, fmt.Errorf("%w: created date must be YYYY-MM-DD", errs.ErrValidation)
		}
		f.CreatedDate = &day
	}
	plan.Filter = &f
	return plan, nil
}

func (r Resolver) page(p model.PageRequest) (model.PageRequest, error) {
	if p.Page < 0 {
		return p, fmt.Errorf("%w: page must not be negative", errs.ErrValidation)
	}
	def, limit := r.DefaultSize, r.MaxSize
	if def <= 0 {
		def = DefaultPageSize
	}
	if limit <= 0 {
		limit = MaxPageSize
	}
	switch {
	case p.Size < 0:
		return p, fmt.Errorf("%w: size must not be negative", errs.ErrValidation)
	case p.Size == 0:
		p.Size = def
	case p.Size > limit:
		p.Size = limit
	}
	// Offset is page*size and must fit in an int.
	if p.Page > math.MaxInt/p.Size {
		return p, fmt.Errorf("%w: page out of range", errs.ErrValidation)
	}
	sort, err := parseSort(string(p.Sort))
	if err != nil {
		return p, err
	}
	p.Sort = sort
	return p, nil
}

// parseSort accepts the column names callers know, including the legacy "cardID".
func parseSort(s string) (model.SortField, error) {
	switch strings.TrimSpace(s) {
	case "", "id", "cardID":
		return model.SortByID, nil
	case "name":
		return model.SortByName, nil
	case "color":
		return model.SortByColor, nil
	case "status":
		return model.SortByStatus, nil
	case "createdDate":
		return model.SortByCreatedDate, nil
	case "updatedDate":
		return model.SortByUpdatedDate, nil
	}
	return "", fmt.Errorf("%w: cannot sort by %q", errs.ErrValidation, s)
}
