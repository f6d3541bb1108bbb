package models

import "time"

// SavedLayout is a named snapshot of a full three-breakpoint layout stored
// in the catalog. Distinct from the active layout, which lives in its own
// per-breakpoint documents and changes with every drag.
type SavedLayout struct {
	ID           string    `firestore:"id" json:"id"`
	UserID       string    `firestore:"userId" json:"user_id"`
	Name         string    `firestore:"name" json:"name"`
	Description  string    `firestore:"description,omitempty" json:"description,omitempty"`
	IsDefault    bool      `firestore:"isDefault" json:"is_default"`
	LayoutConfig Layout    `firestore:"layoutConfig" json:"layout_config"`
	CreatedAt    time.Time `firestore:"createdAt" json:"created_at"`
	UpdatedAt    time.Time `firestore:"updatedAt" json:"updated_at"`
}

// LayoutTemplate is a read-only, code-shipped layout. It has no identity in
// the catalog; applying one copies its config into the active layout.
type LayoutTemplate struct {
	TemplateID   string `json:"template_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	LayoutConfig Layout `json:"layout_config"`
}
