package configorm

import (
	"errors"
	"fmt"
)

// Errors returned by section declaration, field access and reconciliation.
var (
	// ErrSchemaDefinition indicates an invalid section or field declaration.
	ErrSchemaDefinition = errors.New("invalid schema definition")

	// ErrValidation is matched by every write-path validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrTypeMismatch indicates a written value has the wrong type for the field.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNullability indicates null was written to a field that does not allow it.
	ErrNullability = errors.New("null value for non-null field")

	// ErrRuleViolation indicates a written value failed the field's validation rule.
	ErrRuleViolation = errors.New("rule violation")

	// ErrCast indicates a stored value could not be parsed into the field type.
	ErrCast = errors.New("cannot cast stored value")

	// ErrMissingValue indicates a required field has no stored value and no default.
	ErrMissingValue = errors.New("missing value")

	// ErrStoreIO indicates the backing store failed.
	ErrStoreIO = errors.New("store failure")

	// ErrUnknownField indicates a section has no field with the requested name.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnbound indicates a field was used before being declared into a section.
	ErrUnbound = errors.New("field is not bound to a section")
)

// SchemaError describes a declaration-time failure. It is fatal: the section
// that triggered it is never created.
type SchemaError struct {
	// Section is the identifier of the section being declared (may be empty).
	Section string
	// Field is the field name (may be empty).
	Field string
	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	switch {
	case e.Section != "" && e.Field != "":
		return fmt.Sprintf("schema error in %s.%s: %s", e.Section, e.Field, e.Message)
	case e.Section != "":
		return fmt.Sprintf("schema error in %s: %s", e.Section, e.Message)
	default:
		return fmt.Sprintf("schema error: %s", e.Message)
	}
}

// Is reports whether target is ErrSchemaDefinition.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaDefinition
}

// ValidationCode categorizes write-path validation failures.
type ValidationCode uint8

const (
	// CodeTypeMismatch indicates the value type is wrong.
	CodeTypeMismatch ValidationCode = iota
	// CodeNullability indicates null was written to a non-null field.
	CodeNullability
	// CodeRuleViolation indicates the value failed the declared rule.
	CodeRuleViolation
)

// String returns a human-readable name for the code.
func (c ValidationCode) String() string {
	switch c {
	case CodeTypeMismatch:
		return "type_mismatch"
	case CodeNullability:
		return "nullability"
	case CodeRuleViolation:
		return "rule_violation"
	default:
		return "unknown"
	}
}

// ValidationError is returned when a value is rejected before reaching the store.
type ValidationError struct {
	Section string
	Field   string
	Code    ValidationCode
	// Value is the rejected value.
	Value any
	// Message describes the failure.
	Message string
	// Err is the underlying cause (validator errors for rule violations).
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s (value: %v)", e.Section, e.Field, e.Message, e.Value)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is matches ErrValidation and the sentinel for the error code.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	switch e.Code {
	case CodeTypeMismatch:
		return target == ErrTypeMismatch
	case CodeNullability:
		return target == ErrNullability
	case CodeRuleViolation:
		return target == ErrRuleViolation
	}
	return false
}

// CastError is returned when stored text cannot be parsed into the field type.
type CastError struct {
	Section string
	Field   string
	// Kind is the target kind.
	Kind Kind
	// Raw is the stored text.
	Raw string
	Err error
}

// Error implements the error interface.
func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast %q to %s for %s.%s: %v", e.Raw, e.Kind, e.Section, e.Field, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *CastError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCast.
func (e *CastError) Is(target error) bool {
	return target == ErrCast
}

// MissingValueError is returned when reading a required field that has neither
// a stored value nor a default.
type MissingValueError struct {
	Section string
	Field   string
}

// Error implements the error interface.
func (e *MissingValueError) Error() string {
	return fmt.Sprintf("no value for required field %s.%s", e.Section, e.Field)
}

// Is reports whether target is ErrMissingValue.
func (e *MissingValueError) Is(target error) bool {
	return target == ErrMissingValue
}

// StoreError wraps a failure reported by the backing store.
type StoreError struct {
	// Op is the store operation that failed (e.g. "read", "create_section").
	Op        string
	Section   string
	Attribute string
	Err       error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("store %s %s.%s: %v", e.Op, e.Section, e.Attribute, e.Err)
	}
	if e.Section != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.Section, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

// Unwrap returns the store's error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrStoreIO.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreIO
}
