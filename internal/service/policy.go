package service

import "github.com/and161185/cardkeeper/internal/model"

// CanView reports whether caller may read card: owners and admins only.
func CanView(card model.Card, caller model.Caller) bool {
	return caller.IsAdmin() || card.OwnerID == caller.ID
}

// CanMutate reports whether caller may update, toggle or delete card.
// The rule matches CanView.
func CanMutate(card model.Card, caller model.Caller) bool {
	return CanView(card, caller)
}
