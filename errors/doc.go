// Package errors provides the structured error type returned by the wasm
// module builder and encoder.
//
// Errors are categorized by Phase (where construction or encoding failed)
// and Kind (invalid_argument, invalid_structure, overflow). The Error type
// carries a field path and an optional wrapped cause.
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.PhaseBuild, errors.KindInvalidArgument).
//		Path("globals", "3", "mutability").
//		Detail("unknown mutability %q", m).
//		Build()
//
// Or use the convenience constructors for the common one-liner case:
//
//	err := errors.InvalidArgument(errors.PhaseBuild, "unknown value type 0x%02x", vt)
//
// All errors implement the standard error interface and support errors.Is.
package errors
