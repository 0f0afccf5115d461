package configorm

import (
	"strings"

	"go.uber.org/zap"
)

// Metadata is the per-section registry: identity, store, fields and children.
// It is filled once during declaration and not modified afterwards, except
// for children being appended as they are declared.
type Metadata struct {
	identifier string
	name       string
	store      Store
	logger     *zap.Logger
	parent     *Metadata

	fields   map[string]*field
	order    []string
	children []*Metadata
}

// NewMetadata is the default metadata constructor. The section name is the
// lower-cased identifier.
func NewMetadata(identifier string, meta Meta) *Metadata {
	logger := meta.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	md := &Metadata{
		identifier: identifier,
		name:       strings.ToLower(identifier),
		store:      meta.Store,
		logger:     logger,
		fields:     make(map[string]*field),
	}
	if meta.Parent != nil {
		md.parent = meta.Parent.md
	}
	return md
}

// Identifier returns the declared identifier, e.g. "SectionA".
func (m *Metadata) Identifier() string { return m.identifier }

// Name returns the lower-cased identifier used as the store section name.
func (m *Metadata) Name() string { return m.name }

// Store returns the section's store.
func (m *Metadata) Store() Store { return m.store }

// Logger returns the section's logger.
func (m *Metadata) Logger() *zap.Logger { return m.logger }

// Parent returns the parent section's metadata, or nil for a root.
func (m *Metadata) Parent() *Metadata { return m.parent }

// FieldNames returns field names in declaration order.
func (m *Metadata) FieldNames() []string {
	names := make([]string, len(m.order))
	copy(names, m.order)
	return names
}

// HasField reports whether name is a registered field.
func (m *Metadata) HasField(name string) bool {
	_, ok := m.fields[name]
	return ok
}

// FieldKind returns the kind of a registered field.
func (m *Metadata) FieldKind(name string) (Kind, bool) {
	f, ok := m.fields[name]
	if !ok {
		return 0, false
	}
	return f.kind, true
}

// Children returns the metadata of sections declared with this one as parent.
func (m *Metadata) Children() []*Metadata {
	children := make([]*Metadata, len(m.children))
	copy(children, m.children)
	return children
}

// register binds f under name. The first registration of a name wins.
func (m *Metadata) register(name string, f *field) bool {
	if _, exists := m.fields[name]; exists {
		return false
	}
	f.name = name
	f.owner = m
	m.fields[name] = f
	m.order = append(m.order, name)
	return true
}

func (m *Metadata) lookup(name string) (*field, error) {
	f, ok := m.fields[name]
	if !ok {
		return nil, &unknownFieldError{section: m.name, field: name}
	}
	return f, nil
}

type unknownFieldError struct {
	section string
	field   string
}

func (e *unknownFieldError) Error() string {
	return "unknown field " + e.section + "." + e.field
}

func (e *unknownFieldError) Is(target error) bool {
	return target == ErrUnknownField
}

func fieldLogFields(md *Metadata, f *field) []zap.Field {
	return []zap.Field{
		zap.String("section", md.name),
		zap.String("field", f.name),
	}
}
