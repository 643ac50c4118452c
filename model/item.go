package model

import "github.com/google/uuid"

// Item is an opaque pickup or effect token issued by the server. Only its
// identity matters to the simulation core.
type Item struct {
	ID   uuid.UUID
	Kind string // optional label, e.g. "radar-jammer"
}

// NewItem returns an item with a freshly generated identity.
func NewItem(kind string) *Item {
	return &Item{ID: uuid.New(), Kind: kind}
}
