package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/and161185/cardkeeper/internal/errs"
	"github.com/and161185/cardkeeper/internal/model"
)

// Getter returns a query parameter, or "" when it is missing.
type Getter func(key string) string

func optional(get Getter, key string) *string {
	v := strings.TrimSpace(get(key))
	if v == "" {
		return nil
	}
	return &v
}

// FilterFromQuery reads the listing filter. Empty values count as absent.
func FilterFromQuery(get Getter) model.FilterParams {
	return model.FilterParams{
		Name:        optional(get, "name"),
		Color:       optional(get, "color"),
		Status:      optional(get, "status"),
		CreatedDate: optional(get, "creationDate"),
	}
}

// PageFromQuery reads page, size and sortBy. Range checks are left to the resolver.
func PageFromQuery(get Getter) (model.PageRequest, error) {
	var p model.PageRequest
	var err error
	if p.Page, err = intParam(get, "page"); err != nil {
		return p, err
	}
	if p.Size, err = intParam(get, "size"); err != nil {
		return p, err
	}
	p.Sort = model.SortField(strings.TrimSpace(get("sortBy")))
	return p, nil
}

func intParam(get Getter, key string) (int, error) {
	v := strings.TrimSpace(get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errs.ErrValidation, key)
	}
	return n, nil
}

// ParseActive reads the active flag: 1/0 or true/false.
func ParseActive(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: active must be 0 or 1", errs.ErrValidation)
}

// ParseCardID reads a positive card id from a path segment.
func ParseCardID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid card id %q", errs.ErrValidation, s)
	}
	return id, nil
}
