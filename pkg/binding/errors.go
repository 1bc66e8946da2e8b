package binding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/toyz/axonbind/pkg/axon"
)

// Error variables returned by the resolution pipeline. Typed errors below
// match them through errors.Is.
var (
	// ErrUnsupportedMethod indicates the request method is not allowed by the
	// declaration's variant.
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrUnsupportedMediaType indicates a non-empty body in a format the
	// declaration does not accept.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrMalformedBody indicates a JSON body that cannot be decoded into an object.
	ErrMalformedBody = errors.New("malformed request body")

	// ErrBodyTooLarge indicates a body larger than Config.MaxBodySize.
	ErrBodyTooLarge = axon.ErrBodyTooLarge

	// ErrInvalidInput is matched by every *ViolationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTarget indicates a DTO type that cannot be bound into.
	ErrInvalidTarget = errors.New("invalid binding target")

	// ErrInvalidDeclaration indicates a declaration that cannot be parsed or
	// contains unknown options.
	ErrInvalidDeclaration = errors.New("invalid binding declaration")
)

// MethodError reports a request method outside the allowed set.
type MethodError struct {
	Method  string
	Allowed []string
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("unsupported method %s, expected one of %s", e.Method, strings.Join(e.Allowed, ", "))
}

func (e *MethodError) Is(target error) bool {
	return target == ErrUnsupportedMethod
}

// ViolationKind tells binding violations apart from rule violations.
type ViolationKind int

const (
	// BindViolation means one or more fields could not be converted to their
	// declared type.
	BindViolation ViolationKind = iota + 1
	// RuleViolation means the bound value failed its validation rules.
	RuleViolation
)

func (k ViolationKind) String() string {
	switch k {
	case BindViolation:
		return "bind"
	case RuleViolation:
		return "rule"
	default:
		return "unknown"
	}
}

// ViolationError carries every violation found for one request. A request
// yields either binding or rule violations, never both.
type ViolationError struct {
	Kind       ViolationKind
	Violations ViolationList
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Violations)
}

func (e *ViolationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// FailureReason classifies a field failure.
type FailureReason int

const (
	// TypeMismatch means the value could not be converted to the field's type.
	TypeMismatch FailureReason = iota + 1
	// ExtraAttribute means the key matched no field while extra attributes
	// were disallowed.
	ExtraAttribute
)

// FieldFailure describes one field the binder could not populate.
type FieldFailure struct {
	// Path is the target-side field name, dotted for nested fields
	// ("address.zipCode") and indexed for list elements ("items[0].sku").
	Path string
	// Expected is the declared Go type without the pointer marker.
	Expected string
	Nullable bool
	Value    any
	Reason   FailureReason
	Err      error
}

// PartialBindError is returned by a Denormalizer when some fields failed.
// Object holds the partially populated value.
type PartialBindError struct {
	Object   any
	Failures []FieldFailure
}

func (e *PartialBindError) Error() string {
	paths := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		paths[i] = f.Path
	}
	return fmt.Sprintf("partial binding: %d field(s) failed: %s", len(e.Failures), strings.Join(paths, ", "))
}
