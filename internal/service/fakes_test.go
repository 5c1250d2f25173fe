package service

import (
	"context"
	"sort"
	"sync"

	"github.com/and161185/cardkeeper/internal/errs"
	"github.com/and161185/cardkeeper/internal/model"
	"github.com/and161185/cardkeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// memCards is an in-memory card store that enforces code uniqueness
// the way the database index does.
type memCards struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]model.Card

	lastCall string
	existErr error
}

var _ repository.CardRepository = (*memCards)(nil)

func newMemCards() *memCards { return &memCards{byID: map[int64]model.Card{}} }

func (m *memCards) codeTaken(code string, except int64) bool {
	for id, c := range m.byID {
		if id != except && c.Code == code {
			return true
		}
	}
	return false
}

func (m *memCards) Create(_ context.Context, c *model.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codeTaken(c.Code, 0) {
		return errs.ErrConflict
	}
	m.nextID++
	c.ID = m.nextID
	m.byID[c.ID] = *c
	return nil
}

func (m *memCards) GetByID(_ context.Context, id int64) (*model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &c, nil
}

func (m *memCards) Update(_ context.Context, id int64, fn repository.MutateFunc) (*model.Card, error) {
	m.mu.Lock()
	cur, ok := m.byID[id]
	m.mu.Unlock()
	if !ok {
		return nil, errs.ErrNotFound
	}
	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codeTaken(next.Code, id) {
		return nil, errs.ErrConflict
	}
	next.ID, next.OwnerID, next.CreatedAt = cur.ID, cur.OwnerID, cur.CreatedAt
	m.byID[id] = next
	return &next, nil
}

func (m *memCards) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memCards) ExistsByCode(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codeTaken(code, 0), m.existErr
}

// staleGuard reports every code as free, so only the store constraint stops duplicates.
type staleGuard struct{ *memCards }

func (staleGuard) ExistsByCode(context.Context, string) (bool, error) { return false, nil }

func (m *memCards) ExistsByCodeExcluding(_ context.Context, code string, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codeTaken(code, id), m.existErr
}

func (m *memCards) FindByOwner(_ context.Context, owner uuid.UUID, p model.PageRequest) (model.Page[model.Card], error) {
	m.lastCall = "FindByOwner"
	return m.find(&owner, nil, p), nil
}

func (m *memCards) FindByOwnerFiltered(_ context.Context, owner uuid.UUID, f model.CardFilter, p model.PageRequest) (model.Page[model.Card], error) {
	m.lastCall = "FindByOwnerFiltered"
	return m.find(&owner, &f, p), nil
}

func (m *memCards) FindAll(_ context.Context, p model.PageRequest) (model.Page[model.Card], error) {
	m.lastCall = "FindAll"
	return m.find(nil, nil, p), nil
}

func (m *memCards) FindAllFiltered(_ context.Context, f model.CardFilter, p model.PageRequest) (model.Page[model.Card], error) {
	m.lastCall = "FindAllFiltered"
	return m.find(nil, &f, p), nil
}

func (m *memCards) find(owner *uuid.UUID, f *model.CardFilter, p model.PageRequest) model.Page[model.Card] {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Card
	for _, c := range m.byID {
		if owner != nil && c.OwnerID != *owner {
			continue
		}
		if f != nil && !matches(c, *f) {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page := model.Page[model.Card]{Page: p.Page, Size: p.Size, TotalItems: int64(len(all))}
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Size
	if end > len(all) {
		end = len(all)
	}
	page.Items = all[start:end]
	return page
}

func matches(c model.Card, f model.CardFilter) bool {
	if f.Name != nil && c.Name != *f.Name {
		return false
	}
	if f.Color != nil && c.Color != *f.Color {
		return false
	}
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.CreatedDate != nil {
		y1, m1, d1 := c.CreatedAt.UTC().Date()
		y2, m2, d2 := f.CreatedDate.Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			return false
		}
	}
	return true
}
