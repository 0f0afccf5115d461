package configorm

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

type fieldOptions struct {
	def      any
	null     bool
	override bool
	rule     string
}

// Option configures a field at construction.
type Option func(*fieldOptions)

// Default sets the value returned when the store holds nothing for the field.
// Default(nil) means no default.
func Default(v any) Option {
	return func(o *fieldOptions) {
		o.def = v
	}
}

// Null allows the field to hold no value.
func Null() Option {
	return func(o *fieldOptions) {
		o.null = true
	}
}

// EnvOverride lets an environment variable named SECTION_FIELD take
// precedence over the stored value.
func EnvOverride() Option {
	return func(o *fieldOptions) {
		o.override = true
	}
}

// Rule attaches a validator tag (e.g. "min=1,max=65535") checked on every write.
func Rule(tag string) Option {
	return func(o *fieldOptions) {
		o.rule = tag
	}
}

// field is the untyped state shared by every Field[T].
type field struct {
	kind     Kind
	elem     Kind
	typeName string
	def      any
	null     bool
	override bool
	rule     string
	err      error

	name  string
	owner *Metadata
}

// Binder is implemented by *Field[T]. It lets sections bind fields of any type.
type Binder interface {
	binding() *field
}

// Field is a typed setting declared into a section. Reads and writes go
// straight to the section's store; nothing is cached.
type Field[T any] struct {
	f *field
}

// Integer declares an int64 setting.
func Integer(opts ...Option) *Field[int64] {
	return newField[int64](opts)
}

// Float declares a float64 setting.
func Float(opts ...Option) *Field[float64] {
	return newField[float64](opts)
}

// String declares a string setting.
func String(opts ...Option) *Field[string] {
	return newField[string](opts)
}

// Boolean declares a bool setting.
func Boolean(opts ...Option) *Field[bool] {
	return newField[bool](opts)
}

// List declares a list setting with elements of type E. E must be int64,
// float64, string or bool; other element types are rejected when the field
// is declared into a section.
func List[E any](opts ...Option) *Field[[]E] {
	return newField[[]E](opts)
}

func newField[T any](opts []Option) *Field[T] {
	var o fieldOptions
	for _, opt := range opts {
		opt(&o)
	}

	f := &field{
		null:     o.null,
		override: o.override,
		rule:     o.rule,
		typeName: reflect.TypeOf((*T)(nil)).Elem().String(),
	}

	kind, elem, ok := kindOf[T]()
	if !ok {
		f.err = fmt.Errorf("unsupported field type %s", f.typeName)
		return &Field[T]{f: f}
	}
	f.kind, f.elem = kind, elem

	if o.def != nil {
		def, ok := coerceValue(kind, elem, o.def, true)
		if !ok {
			f.err = fmt.Errorf("default %v (%T) is not a valid %s", o.def, o.def, f.typeName)
		} else {
			f.def = def
		}
	}

	return &Field[T]{f: f}
}

func (f *Field[T]) binding() *field {
	if f == nil {
		return nil
	}
	if f.f == nil {
		f.f = newField[T](nil).f
	}
	return f.f
}

// Name returns the field name within its section, or "" before binding.
func (f *Field[T]) Name() string {
	return f.binding().name
}

// Section returns the metadata of the owning section, or nil before binding.
func (f *Field[T]) Section() *Metadata {
	return f.binding().owner
}

// Kind returns the field kind.
func (f *Field[T]) Kind() Kind {
	return f.binding().kind
}

// Nullable reports whether the field accepts null.
func (f *Field[T]) Nullable() bool {
	return f.binding().null
}

// EnvOverride reports whether the environment may override the stored value.
func (f *Field[T]) EnvOverride() bool {
	return f.binding().override
}

// Default returns the declared default.
func (f *Field[T]) Default() (T, bool) {
	var zero T
	if def := f.binding().def; def != nil {
		return cloneValue(def).(T), true
	}
	return zero, false
}

// Lookup resolves the current value. ok is false when the field is null.
func (f *Field[T]) Lookup() (value T, ok bool, err error) {
	v, ok, err := f.binding().read()
	if err != nil || !ok {
		return value, false, err
	}
	return v.(T), true, nil
}

// Get resolves the current value, returning the zero value for null.
func (f *Field[T]) Get() (T, error) {
	v, _, err := f.Lookup()
	return v, err
}

// Value resolves the current value as any. Null is returned as nil.
func (f *Field[T]) Value() (any, error) {
	v, ok, err := f.binding().read()
	if err != nil || !ok {
		return nil, err
	}
	return v, nil
}

// Set validates v and writes it to the store.
func (f *Field[T]) Set(v T) error {
	return f.binding().write(v)
}

// SetNull clears the stored value. It fails unless the field is nullable.
func (f *Field[T]) SetNull() error {
	return f.binding().write(nil)
}

func (f *field) sectionName() string {
	if f.owner == nil {
		return ""
	}
	return f.owner.name
}

// read applies the resolution order: store (or environment), then the
// default, then null.
func (f *field) read() (any, bool, error) {
	if f.owner == nil {
		return nil, false, ErrUnbound
	}

	md := f.owner
	raw, ok, err := md.store.Read(md.name, f.name, f.override)
	if err != nil {
		return nil, false, &StoreError{Op: "read", Section: md.name, Attribute: f.name, Err: err}
	}

	if !ok {
		switch {
		case f.def != nil:
			return cloneValue(f.def), true, nil
		case f.null:
			return nil, false, nil
		default:
			return nil, false, &MissingValueError{Section: md.name, Field: f.name}
		}
	}

	v, err := castRaw(f.kind, f.elem, raw)
	if err != nil {
		return nil, false, &CastError{Section: md.name, Field: f.name, Kind: f.kind, Raw: raw, Err: err}
	}
	return v, true, nil
}

// assign type-checks a dynamically supplied value before writing it.
func (f *field) assign(v any) error {
	if v == nil {
		return f.write(nil)
	}
	coerced, ok := coerceValue(f.kind, f.elem, v, false)
	if !ok {
		return &ValidationError{
			Section: f.sectionName(),
			Field:   f.name,
			Code:    CodeTypeMismatch,
			Value:   v,
			Message: fmt.Sprintf("expected %s, got %T", f.typeName, v),
		}
	}
	return f.write(coerced)
}

// write validates v (already of the field's Go type, or nil) and stores its text.
func (f *field) write(v any) error {
	if f.owner == nil {
		return ErrUnbound
	}
	md := f.owner

	if v == nil {
		if !f.null {
			return &ValidationError{
				Section: md.name,
				Field:   f.name,
				Code:    CodeNullability,
				Message: "field is not nullable",
			}
		}
		md.logger.Debug("writing null", fieldLogFields(md, f)...)
		if err := md.store.Write(md.name, f.name, nil); err != nil {
			return &StoreError{Op: "write", Section: md.name, Attribute: f.name, Err: err}
		}
		return nil
	}

	if f.rule != "" {
		if err := validate.Var(v, f.rule); err != nil {
			return &ValidationError{
				Section: md.name,
				Field:   f.name,
				Code:    CodeRuleViolation,
				Value:   v,
				Message: fmt.Sprintf("violates rule %q", f.rule),
				Err:     err,
			}
		}
	}

	text := formatValue(f.kind, v)
	md.logger.Debug("writing value", fieldLogFields(md, f)...)
	if err := md.store.Write(md.name, f.name, &text); err != nil {
		return &StoreError{Op: "write", Section: md.name, Attribute: f.name, Err: err}
	}
	return nil
}

// checkRule reports rule tags the validator does not understand. The
// validator panics on unknown tags, so the check runs against the zero value
// under recover.
func (f *field) checkRule() (err error) {
	if f.rule == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid rule %q: %v", f.rule, r)
		}
	}()

	var sample any
	switch f.kind {
	case KindInteger:
		sample = int64(0)
	case KindFloat:
		sample = float64(0)
	case KindString:
		sample = ""
	case KindBoolean:
		sample = false
	case KindList:
		sample, _ = castRaw(KindList, f.elem, "[]")
	}

	var invalid *validator.InvalidValidationError
	if verr := validate.Var(sample, f.rule); errors.As(verr, &invalid) {
		return fmt.Errorf("invalid rule %q: %w", f.rule, verr)
	}
	return nil
}

// defaultText renders the default as store text, or nil when there is none.
func (f *field) defaultText() *string {
	if f.def == nil {
		return nil
	}
	text := formatValue(f.kind, f.def)
	return &text
}
