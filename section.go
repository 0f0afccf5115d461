package configorm

import (
	"go.uber.org/zap"
)

// Section is the handle to a declared section. Schema structs embed it by
// value and Declare fills it in; NewSection returns one directly.
type Section struct {
	md *Metadata
}

// Metadata returns the section's metadata, or nil if it was never declared.
func (s *Section) Metadata() *Metadata {
	if s == nil {
		return nil
	}
	return s.md
}

// Identifier returns the declared identifier.
func (s *Section) Identifier() string {
	if s.Metadata() == nil {
		return ""
	}
	return s.md.identifier
}

// Name returns the store section name (the lower-cased identifier).
func (s *Section) Name() string {
	if s.Metadata() == nil {
		return ""
	}
	return s.md.name
}

// Store returns the section's store.
func (s *Section) Store() Store {
	if s.Metadata() == nil {
		return nil
	}
	return s.md.store
}

// FieldNames returns field names in declaration order.
func (s *Section) FieldNames() []string {
	if s.Metadata() == nil {
		return nil
	}
	return s.md.FieldNames()
}

// Children returns handles to the sections declared with s as parent.
func (s *Section) Children() []*Section {
	if s.Metadata() == nil {
		return nil
	}
	children := make([]*Section, 0, len(s.md.children))
	for _, c := range s.md.children {
		children = append(children, &Section{md: c})
	}
	return children
}

// Get resolves a field by name. Null is returned as nil.
func (s *Section) Get(name string) (any, error) {
	if s.Metadata() == nil {
		return nil, ErrUnbound
	}
	f, err := s.md.lookup(name)
	if err != nil {
		return nil, err
	}
	v, ok, err := f.read()
	if err != nil || !ok {
		return nil, err
	}
	return v, nil
}

// Set writes a field by name. v must match the field kind: any Go integer
// for integer fields, float32 or float64 for floats, and a slice (or []any)
// of the element type for lists. nil writes null.
func (s *Section) Set(name string, v any) error {
	if s.Metadata() == nil {
		return ErrUnbound
	}
	f, err := s.md.lookup(name)
	if err != nil {
		return err
	}
	return f.assign(v)
}

// Values resolves every field and returns a snapshot keyed by field name.
// Null fields map to nil.
func (s *Section) Values() (map[string]any, error) {
	if s.Metadata() == nil {
		return nil, ErrUnbound
	}
	values := make(map[string]any, len(s.md.order))
	for _, name := range s.md.order {
		v, ok, err := s.md.fields[name].read()
		if err != nil {
			return nil, err
		}
		if !ok {
			v = nil
		}
		values[name] = v
	}
	s.md.logger.Debug("resolved section snapshot",
		zap.String("section", s.md.name),
		zap.Int("fields", len(values)))
	return values, nil
}
