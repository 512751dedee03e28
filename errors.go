package paramkit

import "errors"

// Sentinel errors for classification with errors.Is.
var (
	// ErrMixedRoots indicates documents whose roots mix sequences with
	// mappings, which cannot be merged.
	ErrMixedRoots = errors.New("cannot combine sequences with mappings")

	// ErrMultipleScalarRoots indicates more than one document with a
	// scalar root.
	ErrMultipleScalarRoots = errors.New("cannot combine multiple scalar documents")

	// ErrNoSerializer indicates a parameter whose kind has no registered
	// or default serializer.
	ErrNoSerializer = errors.New("no serializer for parameter")

	// ErrNoDeserializer indicates a parameter whose kind has no registered
	// or default deserializer.
	ErrNoDeserializer = errors.New("no deserializer for parameter")

	// ErrNotDeclared indicates an operation on an undeclared parameter.
	ErrNotDeclared = errors.New("parameter not declared")

	// ErrInvalidValue indicates a value rejected by a declaration.
	ErrInvalidValue = errors.New("invalid value")
)
