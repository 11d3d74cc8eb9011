package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the encoder pipeline the error occurred.
type Phase string

const (
	PhaseBuild  Phase = "build"  // module/instruction construction
	PhaseEncode Phase = "encode" // binary or text serialization
)

// Kind categorizes the error.
type Kind string

const (
	// KindInvalidArgument covers bad caller input: an unknown mutability,
	// an unrecognized value type, a nil required field.
	KindInvalidArgument Kind = "invalid_argument"

	// KindInvalidStructure covers a module whose shape the binary format
	// cannot represent, even though every individual field was well-typed
	// (e.g. shared memory declared without a maximum).
	KindInvalidStructure Kind = "invalid_structure"

	// KindOverflow covers a value that does not fit the target encoding
	// (a LEB128 value wider than its field, a count exceeding uint32).
	KindOverflow Kind = "overflow"
)

// Error is the structured error type returned by this module's builder and
// encoder APIs. Construction and encoding failures are always fatal: no
// partial output is produced alongside an Error.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by phase and kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides fluent structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder for the given phase and kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path (e.g. ["globals", "3", "init"]).
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value.
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	return &b.err
}

// InvalidArgument is a convenience constructor for the common case of a
// single bad argument with no further path or cause.
func InvalidArgument(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindInvalidArgument).Detail(detail, args...).Build()
}

// InvalidStructure is a convenience constructor for a well-typed but
// unrepresentable module shape.
func InvalidStructure(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindInvalidStructure).Detail(detail, args...).Build()
}

// Overflow is a convenience constructor for a value that does not fit its
// target encoding.
func Overflow(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindOverflow).Detail(detail, args...).Build()
}
