package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/and161185/cardkeeper/internal/errs"
	"github.com/and161185/cardkeeper/internal/model"
	"github.com/and161185/cardkeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const cardColumns = `id, name, description, color, code, status, active, owner_id, updated_by, created_at, updated_at`

var sortColumns = map[model.SortField]string{
	model.SortByID:          "id",
	model.SortByName:        "name",
	model.SortByColor:       "color",
	model.SortByStatus:      "status",
	model.SortByCreatedDate: "created_at",
	model.SortByUpdatedDate: "updated_at",
}

// CardRepo implements CardRepository using PostgreSQL.
type CardRepo struct{ db *DB }

var _ repository.CardRepository = (*CardRepo)(nil)

// NewCardRepo constructs a card repository.
func NewCardRepo(db *DB) *CardRepo { return &CardRepo{db: db} }

// Create inserts a card; the unique index on code makes the check atomic.
func (r *CardRepo) Create(ctx context.Context, c *model.Card) error {
	const q = `
INSERT INTO cards (name, description, color, code, status, active, owner_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := r.db.Pool.QueryRow(ctx, q,
		c.Name, c.Description, c.Color, c.Code, c.Status.String(), c.Active, c.OwnerID, c.CreatedAt,
	).Scan(&c.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("card code %q: %w", c.Code, errs.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// GetByID selects a card by id.
func (r *CardRepo) GetByID(ctx context.Context, id int64) (*model.Card, error) {
	q := `SELECT ` + cardColumns + ` FROM cards WHERE id=$1`
	c, err := scanCard(r.db.Pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

// Update locks the row, lets fn compute the new state and writes it in the same transaction.
func (r *CardRepo) Update(ctx context.Context, id int64, fn repository.MutateFunc) (out *model.Card, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			out, err = nil, e
		}
	}()

	sel := `SELECT ` + cardColumns + ` FROM cards WHERE id=$1 FOR UPDATE`
	cur, err := scanCard(tx.QueryRow(ctx, sel, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("lock card: %w", err)
	}

	next, err := fn(*cur)
	if err != nil {
		return nil, err
	}

	const upd = `
UPDATE cards
SET name=$2, description=$3, color=$4, code=$5, status=$6, active=$7, updated_by=$8, updated_at=$9
WHERE id=$1`
	if _, err = tx.Exec(ctx, upd, id,
		next.Name, next.Description, next.Color, next.Code, next.Status.String(), next.Active,
		next.UpdatedBy, next.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("card code %q: %w", next.Code, errs.ErrConflict)
		}
		return nil, fmt.Errorf("update card: %w", err)
	}
	next.ID = cur.ID
	next.OwnerID = cur.OwnerID
	next.CreatedAt = cur.CreatedAt
	return &next, nil
}

// Delete removes a card row.
func (r *CardRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM cards WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ExistsByCode reports whether a card with code exists.
func (r *CardRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM cards WHERE code=$1)`, code).Scan(&ok)
	return ok, err
}

// ExistsByCodeExcluding reports whether a card other than id carries code.
func (r *CardRepo) ExistsByCodeExcluding(ctx context.Context, code string, id int64) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM cards WHERE code=$1 AND id<>$2)`, code, id).Scan(&ok)
	return ok, err
}

// FindByOwner lists cards owned by owner.
func (r *CardRepo) FindByOwner(ctx context.Context, owner uuid.UUID, p model.PageRequest) (model.Page[model.Card], error) {
	return r.find(ctx, &owner, nil, p)
}

// FindByOwnerFiltered lists owned cards matching f.
func (r *CardRepo) FindByOwnerFiltered(ctx context.Context, owner uuid.UUID, f model.CardFilter, p model.PageRequest) (model.Page[model.Card], error) {
	return r.find(ctx, &owner, &f, p)
}

// FindAll lists every card.
func (r *CardRepo) FindAll(ctx context.Context, p model.PageRequest) (model.Page[model.Card], error) {
	return r.find(ctx, nil, nil, p)
}

// FindAllFiltered lists every card matching f.
func (r *CardRepo) FindAllFiltered(ctx context.Context, f model.CardFilter, p model.PageRequest) (model.Page[model.Card], error) {
	return r.find(ctx, nil, &f, p)
}

func (r *CardRepo) find(ctx context.Context, owner *uuid.UUID, f *model.CardFilter, p model.PageRequest) (model.Page[model.Card], error) {
	page := model.Page[model.Card]{Page: p.Page, Size: p.Size}
	col, ok := sortColumns[p.Sort]
	if !ok {
		return page, fmt.Errorf("%w: cannot sort by %q", errs.ErrValidation, p.Sort)
	}

	where, args := whereClause(owner, f)
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM cards`+where, args...).Scan(&page.TotalItems); err != nil {
		return page, fmt.Errorf("count cards: %w", err)
	}

	order := col + " ASC"
	if col != "id" {
		order += ", id ASC"
	}
	n := len(args)
	q := fmt.Sprintf(`SELECT %s FROM cards%s ORDER BY %s LIMIT $%d OFFSET $%d`, cardColumns, where, order, n+1, n+2)
	rows, err := r.db.Pool.Query(ctx, q, append(args, p.Size, p.Offset())...)
	if err != nil {
		return page, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	page.Items = make([]model.Card, 0, p.Size)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return page, fmt.Errorf("scan card: %w", err)
		}
		page.Items = append(page.Items, *c)
	}
	return page, rows.Err()
}

// whereClause renders the owner scope and the set filter fields; absent fields add nothing.
func whereClause(owner *uuid.UUID, f *model.CardFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}
	if owner != nil {
		add("owner_id=$%d", *owner)
	}
	if f != nil {
		if f.Name != nil {
			add("name=$%d", *f.Name)
		}
		if f.Color != nil {
			add("color=$%d", *f.Color)
		}
		if f.Status != nil {
			add("status=$%d", f.Status.String())
		}
		if f.CreatedDate != nil {
			add("(created_at AT TIME ZONE 'UTC')::date=$%d::date", f.CreatedDate.Format("2006-01-02"))
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanCard(row pgx.Row) (*model.Card, error) {
	var (
		c         model.Card
		status    string
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.Code, &status, &c.Active,
		&c.OwnerID, &c.UpdatedBy, &c.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	st, err := model.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("stored status: %w", err)
	}
	c.Status = st
	if updatedAt.Valid {
		t := updatedAt.Time
		c.UpdatedAt = &t
	}
	return &c, nil
}
