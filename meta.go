package configorm

import "go.uber.org/zap"

// Meta is the section-level configuration block supplied at declaration.
type Meta struct {
	// Parent makes the new section a child of another section.
	Parent *Section
	// Store is the backing store. When unset it is inherited from Parent.
	Store Store
	// Logger receives declaration and reconciliation logs. Defaults to a no-op logger.
	Logger *zap.Logger
	// NewMetadata overrides the metadata constructor. Defaults to NewMetadata.
	NewMetadata func(identifier string, meta Meta) *Metadata
}

// MergeInheritable fills inheritable settings the child leaves unset from the
// parent. Only Store is inheritable; the child's own values always win.
func MergeInheritable(child Meta, parent *Metadata) Meta {
	if parent == nil {
		return child
	}
	if child.Store == nil {
		child.Store = parent.store
	}
	return child
}
