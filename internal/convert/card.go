// Package convert maps domain types to and from their HTTP representations.
package convert

import (
	"time"

	"github.com/and161185/cardkeeper/internal/model"
)

// CardDTO is the wire form of a card.
type CardDTO struct {
	ID          int64      `json:"cardID"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	Code        string     `json:"code"`
	Status      string     `json:"status"`
	Active      int        `json:"active"` // 1 active, 0 inactive
	OwnerID     string     `json:"createdBy"`
	UpdatedBy   *string    `json:"updatedBy"`
	CreatedAt   time.Time  `json:"createdDate"`
	UpdatedAt   *time.Time `json:"updatedDate"`
}

// PageDTO is the wire form of a card listing.
type PageDTO struct {
	Items      []CardDTO `json:"items"`
	Page       int       `json:"page"`
	Size       int       `json:"size"`
	TotalItems int64     `json:"totalItems"`
	TotalPages int64     `json:"totalPages"`
}

// CardBody is the create and update request body. Absent fields stay nil.
type CardBody struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Status      *string `json:"status"`
}

// ToRequest converts the body into a domain request.
func (b CardBody) ToRequest() model.CardRequest {
	return model.CardRequest{
		Name:        b.Name,
		Description: b.Description,
		Color:       b.Color,
		Status:      b.Status,
	}
}

// ToCardDTO converts a domain card.
func ToCardDTO(c model.Card) CardDTO {
	dto := CardDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Code:        c.Code,
		Status:      c.Status.String(),
		OwnerID:     c.OwnerID.String(),
		CreatedAt:   c.CreatedAt.UTC(),
	}
	if c.Active {
		dto.Active = 1
	}
	if c.UpdatedBy.Valid {
		s := c.UpdatedBy.UUID.String()
		dto.UpdatedBy = &s
	}
	if c.UpdatedAt != nil {
		t := c.UpdatedAt.UTC()
		dto.UpdatedAt = &t
	}
	return dto
}

// ToPageDTO converts a page of cards. Items is never null.
func ToPageDTO(p model.Page[model.Card]) PageDTO {
	items := make([]CardDTO, 0, len(p.Items))
	for _, c := range p.Items {
		items = append(items, ToCardDTO(c))
	}
	return PageDTO{
		Items:      items,
		Page:       p.Page,
		Size:       p.Size,
		TotalItems: p.TotalItems,
		TotalPages: p.TotalPages(),
	}
}
