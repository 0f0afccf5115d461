package configorm

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// Binding pairs a field with its name for NewSection.
type Binding struct {
	name  string
	field Binder
}

// Bind names a field for NewSection.
func Bind(name string, f Binder) Binding {
	return Binding{name: name, field: f}
}

// NewSection declares a section with the given fields, in order. Duplicate
// names are ignored after the first.
func NewSection(identifier string, meta Meta, fields ...Binding) (*Section, error) {
	return declare(identifier, meta, fields)
}

// MustSection is like NewSection but panics on error.
func MustSection(identifier string, meta Meta, fields ...Binding) *Section {
	s, err := NewSection(identifier, meta, fields...)
	if err != nil {
		panic(fmt.Sprintf("configorm: section declaration failed: %v", err))
	}
	return s
}

var (
	sectionType = reflect.TypeOf(Section{})
	binderType  = reflect.TypeOf((*Binder)(nil)).Elem()
)

// Declare declares a section from a schema struct. schema must be a pointer
// to a struct embedding Section; the struct type name is the identifier.
//
// Exported *Field[T] members become fields, named by their `configorm` tag
// or the snake_cased Go name. A tag of "-" skips the member. Nil members are
// allocated without options. Members promoted from other embedded structs
// are not considered.
func Declare(schema any, meta Meta) error {
	rv := reflect.ValueOf(schema)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return &SchemaError{Message: fmt.Sprintf("schema must be a non-nil struct pointer, got %T", schema)}
	}
	v := rv.Elem()
	if v.Kind() != reflect.Struct {
		return &SchemaError{Message: fmt.Sprintf("schema must be a non-nil struct pointer, got %T", schema)}
	}
	t := v.Type()
	identifier := t.Name()

	sectionIdx := -1
	var bindings []Binding
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous {
			if sf.Type == sectionType {
				sectionIdx = i
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get("configorm")
		if tag == "-" {
			continue
		}
		if sf.Type.Kind() != reflect.Ptr || !sf.Type.Implements(binderType) {
			continue
		}

		fv := v.Field(i)
		if fv.IsNil() {
			fv.Set(reflect.New(sf.Type.Elem()))
		}

		name := strings.Split(tag, ",")[0]
		if name == "" {
			name = toSnakeCase(sf.Name)
		}
		bindings = append(bindings, Bind(name, fv.Interface().(Binder)))
	}

	if sectionIdx < 0 {
		return &SchemaError{Section: identifier, Message: "schema struct must embed configorm.Section"}
	}

	s, err := declare(identifier, meta, bindings)
	if err != nil {
		return err
	}
	v.Field(sectionIdx).Set(reflect.ValueOf(*s))
	return nil
}

// MustDeclare is like Declare but panics on error.
func MustDeclare(schema any, meta Meta) {
	if err := Declare(schema, meta); err != nil {
		panic(fmt.Sprintf("configorm: section declaration failed: %v", err))
	}
}

// declare validates everything before binding anything, so a failed
// declaration leaves its fields unbound and its parent untouched.
func declare(identifier string, meta Meta, bindings []Binding) (*Section, error) {
	if !isValidIdentifier(identifier) {
		return nil, &SchemaError{Section: identifier, Message: fmt.Sprintf("invalid section identifier %q", identifier)}
	}

	var parent *Metadata
	if meta.Parent != nil {
		parent = meta.Parent.Metadata()
		if parent == nil {
			return nil, &SchemaError{Section: identifier, Message: "parent section is not declared"}
		}
		meta = MergeInheritable(meta, parent)
	}
	if meta.Store == nil {
		return nil, &SchemaError{Section: identifier, Message: "no store configured and none inherited"}
	}

	seen := make(map[*field]string, len(bindings))
	for _, b := range bindings {
		if b.field == nil || b.field.binding() == nil {
			return nil, &SchemaError{Section: identifier, Field: b.name, Message: "nil field"}
		}
		if !isValidFieldName(b.name) {
			return nil, &SchemaError{Section: identifier, Field: b.name, Message: fmt.Sprintf("invalid field name %q", b.name)}
		}
		f := b.field.binding()
		if f.err != nil {
			return nil, &SchemaError{Section: identifier, Field: b.name, Message: f.err.Error()}
		}
		if err := f.checkRule(); err != nil {
			return nil, &SchemaError{Section: identifier, Field: b.name, Message: err.Error()}
		}
		if f.owner != nil {
			return nil, &SchemaError{
				Section: identifier,
				Field:   b.name,
				Message: fmt.Sprintf("field already bound to %s.%s", f.owner.identifier, f.name),
			}
		}
		if other, dup := seen[f]; dup && other != b.name {
			return nil, &SchemaError{
				Section: identifier,
				Field:   b.name,
				Message: fmt.Sprintf("field is also declared as %q", other),
			}
		}
		seen[f] = b.name
	}

	newMetadata := meta.NewMetadata
	if newMetadata == nil {
		newMetadata = NewMetadata
	}
	md := newMetadata(identifier, meta)
	if md == nil {
		return nil, &SchemaError{Section: identifier, Message: "metadata constructor returned nil"}
	}
	if md.store == nil {
		md.store = meta.Store
	}
	if md.logger == nil {
		md.logger = zap.NewNop()
	}
	if md.fields == nil {
		md.fields = make(map[string]*field)
	}
	md.parent = parent

	for _, b := range bindings {
		f := b.field.binding()
		if f.owner == md {
			continue
		}
		if !md.register(b.name, f) {
			md.logger.Debug("ignoring duplicate field",
				zap.String("section", md.name),
				zap.String("field", b.name))
		}
	}

	if parent != nil {
		parent.children = append(parent.children, md)
	}

	md.logger.Debug("declared section",
		zap.String("section", md.name),
		zap.Strings("fields", md.order))
	return &Section{md: md}, nil
}
