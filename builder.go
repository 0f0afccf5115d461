package configorm

import (
	"fmt"

	"go.uber.org/zap"
)

// ValidatorFunc checks a freshly declared section. It runs at the end of Build.
type ValidatorFunc func(s *Section) error

// SectionBuilder provides a fluent interface for declaring sections.
type SectionBuilder struct {
	identifier string
	meta       Meta
	bindings   []Binding
	validators []ValidatorFunc
	check      bool
	err        error
}

// NewSectionBuilder starts a declaration of the section named identifier.
func NewSectionBuilder(identifier string) *SectionBuilder {
	return &SectionBuilder{identifier: identifier}
}

// WithParent makes the section a child of parent.
func (b *SectionBuilder) WithParent(parent *Section) *SectionBuilder {
	b.meta.Parent = parent
	return b
}

// WithStore sets the section's store.
func (b *SectionBuilder) WithStore(store Store) *SectionBuilder {
	b.meta.Store = store
	return b
}

// WithLogger sets the section's logger.
func (b *SectionBuilder) WithLogger(logger *zap.Logger) *SectionBuilder {
	b.meta.Logger = logger
	return b
}

// WithMetadataFactory overrides the metadata constructor.
func (b *SectionBuilder) WithMetadataFactory(fn func(identifier string, meta Meta) *Metadata) *SectionBuilder {
	b.meta.NewMetadata = fn
	return b
}

// WithField adds a field. Fields keep the order they are added in.
func (b *SectionBuilder) WithField(name string, f Binder) *SectionBuilder {
	if (f == nil || f.binding() == nil) && b.err == nil {
		b.err = &SchemaError{Section: b.identifier, Field: name, Message: "nil field"}
	}
	b.bindings = append(b.bindings, Bind(name, f))
	return b
}

// WithValidator adds a check that runs after the section is declared.
// Validators run in the order they are added.
func (b *SectionBuilder) WithValidator(fn ValidatorFunc) *SectionBuilder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// WithIntegrityCheck runs CheckIntegrity on the built section.
func (b *SectionBuilder) WithIntegrityCheck() *SectionBuilder {
	b.check = true
	return b
}

// Build declares the section.
func (b *SectionBuilder) Build() (*Section, error) {
	if b.err != nil {
		return nil, b.err
	}

	s, err := declare(b.identifier, b.meta, b.bindings)
	if err != nil {
		return nil, err
	}

	if b.check {
		if err := s.CheckIntegrity(); err != nil {
			return nil, fmt.Errorf("integrity check failed: %w", err)
		}
	}

	for _, validator := range b.validators {
		if err := validator(s); err != nil {
			return nil, fmt.Errorf("section validation failed: %w", err)
		}
	}

	return s, nil
}

// MustBuild is like Build but panics on error.
func (b *SectionBuilder) MustBuild() *Section {
	s, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("configorm: section build failed: %v", err))
	}
	return s
}
