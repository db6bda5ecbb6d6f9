// Package lingoerr provides the error taxonomy shared across the database
// format, builder, reader, and query engine.
package lingoerr

import (
	"errors"
	"fmt"
)

// Kind identifies the category a failure belongs to. Kinds are compared
// with errors.Is, never by matching error strings.
type Kind int

const (
	// Format errors: the on-disk file itself is malformed.
	KindInvalidMagic Kind = iota
	KindUnsupportedVersion
	KindTruncated
	KindCorruptSection
	KindChecksumMismatch
	KindInvalidUTF8

	// Bounds errors: a valid file was asked for something out of range.
	KindOutOfBounds
	KindInvalidNodeID
	KindWordNotFound
	KindStringTooLong

	// Build errors: the accumulator rejected an operation.
	KindDuplicateID
	KindUnknownTarget
	KindTooManyNodes
	KindInvalidCoordinate
	KindInvalidConnection

	// Execution errors: the VM rejected or aborted a compiled query.
	KindEmptyStack
	KindStackOverflow
	KindUnsupportedOp
	KindInvalidOperand
	KindMissingIndex
	KindExecutionLimitExceeded
	KindNodeNotFound

	// I/O wraps the underlying filesystem error; Kind is informational only,
	// errors.Is against the wrapped cause still works via Unwrap.
	KindIO

	// Security errors: untrusted input to Open/Create or a query.
	KindPathTraversal
	KindFileTooLarge
	KindQueryTooLong
	KindLimitOutOfRange
)

func (k Kind) String() string {
	switch k {
	case KindInvalidMagic:
		return "invalid_magic"
	case KindUnsupportedVersion:
		return "unsupported_version"
	case KindTruncated:
		return "truncated"
	case KindCorruptSection:
		return "corrupt_section"
	case KindChecksumMismatch:
		return "checksum_mismatch"
	case KindInvalidUTF8:
		return "invalid_utf8"
	case KindOutOfBounds:
		return "out_of_bounds"
	case KindInvalidNodeID:
		return "invalid_node_id"
	case KindWordNotFound:
		return "word_not_found"
	case KindStringTooLong:
		return "string_too_long"
	case KindDuplicateID:
		return "duplicate_id"
	case KindUnknownTarget:
		return "unknown_target"
	case KindTooManyNodes:
		return "too_many_nodes"
	case KindInvalidCoordinate:
		return "invalid_coordinate"
	case KindInvalidConnection:
		return "invalid_connection"
	case KindEmptyStack:
		return "empty_stack"
	case KindStackOverflow:
		return "stack_overflow"
	case KindUnsupportedOp:
		return "unsupported_op"
	case KindInvalidOperand:
		return "invalid_operand"
	case KindMissingIndex:
		return "missing_index"
	case KindExecutionLimitExceeded:
		return "execution_limit_exceeded"
	case KindNodeNotFound:
		return "node_not_found"
	case KindIO:
		return "io"
	case KindPathTraversal:
		return "path_traversal"
	case KindFileTooLarge:
		return "file_too_large"
	case KindQueryTooLong:
		return "query_too_long"
	case KindLimitOutOfRange:
		return "limit_out_of_range"
	default:
		return "unknown"
	}
}

// Error is the single wrapping error type used across the module. It carries
// a Kind for errors.Is-style matching, a context string describing where the
// failure happened, and an optional underlying cause.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, lingoerr.New(lingoerr.KindInvalidNodeID, "", nil)) style
// comparisons work; callers normally use the Kind-sentinel helpers below
// instead of constructing a comparison error directly.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New builds a new Error of the given kind.
func New(kind Kind, context string, cause error) *Error {
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// Wrap is a convenience for the common "I/O failed here" case.
func Wrap(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: KindIO, Context: context, Cause: cause}
}

// Sentinel values usable with errors.Is(err, lingoerr.InvalidNodeID) etc.
// Each carries only its Kind; Context/Cause are irrelevant for comparison
// since Is compares Kind alone.
var (
	InvalidMagic           = &Error{Kind: KindInvalidMagic}
	UnsupportedVersion     = &Error{Kind: KindUnsupportedVersion}
	Truncated              = &Error{Kind: KindTruncated}
	CorruptSection         = &Error{Kind: KindCorruptSection}
	ChecksumMismatch       = &Error{Kind: KindChecksumMismatch}
	InvalidUTF8            = &Error{Kind: KindInvalidUTF8}
	OutOfBounds            = &Error{Kind: KindOutOfBounds}
	InvalidNodeID          = &Error{Kind: KindInvalidNodeID}
	WordNotFound           = &Error{Kind: KindWordNotFound}
	StringTooLong          = &Error{Kind: KindStringTooLong}
	DuplicateID            = &Error{Kind: KindDuplicateID}
	UnknownTarget          = &Error{Kind: KindUnknownTarget}
	TooManyNodes           = &Error{Kind: KindTooManyNodes}
	InvalidCoordinate      = &Error{Kind: KindInvalidCoordinate}
	InvalidConnection      = &Error{Kind: KindInvalidConnection}
	IO                     = &Error{Kind: KindIO}
	EmptyStack             = &Error{Kind: KindEmptyStack}
	StackOverflow          = &Error{Kind: KindStackOverflow}
	UnsupportedOp          = &Error{Kind: KindUnsupportedOp}
	InvalidOperand         = &Error{Kind: KindInvalidOperand}
	MissingIndex           = &Error{Kind: KindMissingIndex}
	ExecutionLimitExceeded = &Error{Kind: KindExecutionLimitExceeded}
	NodeNotFound           = &Error{Kind: KindNodeNotFound}
	PathTraversal          = &Error{Kind: KindPathTraversal}
	FileTooLarge           = &Error{Kind: KindFileTooLarge}
	QueryTooLong           = &Error{Kind: KindQueryTooLong}
	LimitOutOfRange        = &Error{Kind: KindLimitOutOfRange}
)
