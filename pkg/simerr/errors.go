// Package simerr defines the error taxonomy shared by the simulation engine.
//
// Every error carries a Kind: validation errors fail fast without partial
// mutation, computation errors describe an undefined metric that callers
// resolve to a sentinel, and resource errors are raised before a run starts
// when configured size bounds would be exceeded.
package simerr

import (
	"errors"
	"fmt"
)

// Kind sentinels. An *Error matches its kind through errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrComputation = errors.New("computation error")
	ErrResource    = errors.New("resource limit exceeded")
)

// Common causes
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknownReference = errors.New("unknown reference")
	ErrNotFound         = errors.New("not found")
	ErrKindConflict     = errors.New("id already used by another kind")
	ErrOutOfRange       = errors.New("value out of range")
	ErrEmptyGraph       = errors.New("graph has no nodes")
)

// Kind classifies an Error.
type Kind int

const (
	KindValidation Kind = iota
	KindComputation
	KindResource
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindComputation:
		return "computation"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindComputation:
		return ErrComputation
	case KindResource:
		return ErrResource
	default:
		return ErrValidation
	}
}

// Error provides structured information about a failed engine operation.
type Error struct {
	Op      string // Operation that failed (e.g., "add route", "generate")
	Kind    Kind
	Entity  string // Entity type (e.g., "facility", "route", "scenario")
	ID      string // Entity ID (if applicable)
	Field   string // Offending field
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *Error) Error() string {
	subject := e.Op
	if e.Entity != "" {
		subject += " " + e.Entity
	}
	if e.ID != "" {
		subject += " " + e.ID
	}
	switch {
	case e.Field != "" && e.Context != "":
		return fmt.Sprintf("%s (field %s, %s): %v", subject, e.Field, e.Context, e.Cause)
	case e.Field != "":
		return fmt.Sprintf("%s (field %s): %v", subject, e.Field, e.Cause)
	case e.Context != "":
		return fmt.Sprintf("%s (%s): %v", subject, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %v", subject, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is this error's kind sentinel or matches its cause.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if target == e.Kind.sentinel() {
		return true
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building Errors.
type ErrorBuilder struct {
	err Error
}

// NewError creates a new error builder with the given operation and kind.
func NewError(op string, kind Kind) *ErrorBuilder {
	return &ErrorBuilder{err: Error{Op: op, Kind: kind}}
}

// Validation starts a validation error for op.
func Validation(op string) *ErrorBuilder {
	return NewError(op, KindValidation)
}

// Computation starts a computation error for op.
func Computation(op string) *ErrorBuilder {
	return NewError(op, KindComputation)
}

// Resource starts a resource error for op.
func Resource(op string) *ErrorBuilder {
	return NewError(op, KindResource)
}

// Facility sets the entity to "facility" with the given ID.
func (b *ErrorBuilder) Facility(id string) *ErrorBuilder {
	return b.Entity("facility", id)
}

// DemandPoint sets the entity to "demand point" with the given ID.
func (b *ErrorBuilder) DemandPoint(id string) *ErrorBuilder {
	return b.Entity("demand point", id)
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id string) *ErrorBuilder {
	return b.Entity("node", id)
}

// Route sets the entity to "route" with the given ID.
func (b *ErrorBuilder) Route(id string) *ErrorBuilder {
	return b.Entity("route", id)
}

// Scenario sets the entity to "scenario" with the given ID.
func (b *ErrorBuilder) Scenario(id string) *ErrorBuilder {
	return b.Entity("scenario", id)
}

// Entity sets an arbitrary entity type and ID.
func (b *ErrorBuilder) Entity(entity, id string) *ErrorBuilder {
	b.err.Entity = entity
	b.err.ID = id
	return b
}

// Field sets the offending field name.
func (b *ErrorBuilder) Field(name string) *ErrorBuilder {
	b.err.Field = name
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

// Contextf sets formatted context information.
func (b *ErrorBuilder) Contextf(format string, args ...any) *ErrorBuilder {
	b.err.Context = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed Error.
func (b *ErrorBuilder) Build() *Error {
	e := b.err
	if e.Cause == nil {
		e.Cause = e.Kind.sentinel()
	}
	return &e
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return b.Build()
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsComputation reports whether err is a computation error.
func IsComputation(err error) bool {
	return errors.Is(err, ErrComputation)
}

// IsResource reports whether err is a resource error.
func IsResource(err error) bool {
	return errors.Is(err, ErrResource)
}

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
