package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/and161185/cardkeeper/internal/errs"
	"github.com/and161185/cardkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty or blank", errs.ErrValidation)
	}
	return nil
}

func validateColor(color string) error {
	if !colorRe.MatchString(color) {
		return fmt.Errorf("%w: color must be 6 hex digits prefixed with #", errs.ErrValidation)
	}
	return nil
}

// Merge applies the fields present in req on top of cur. Owner and
// creation time are never touched; code is recomputed.
func Merge(cur model.Card, req model.CardRequest, editor uuid.UUID, now time.Time) (model.Card, error) {
	next := cur
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return cur, err
		}
		next.Name = *req.Name
	}
	if req.Color != nil {
		if err := validateColor(*req.Color); err != nil {
			return cur, err
		}
		next.Color = *req.Color
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if req.Status != nil {
		st, err := model.ParseStatus(*req.Status)
		if err != nil {
			return cur, err
		}
		next.Status = st
	}
	next.Code = model.CardCode(next.Name, next.Color)
	next.UpdatedBy = uuid.NullUUID{UUID: editor, Valid: true}
	next.UpdatedAt = &now
	return next, nil
}
