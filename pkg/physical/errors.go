package physical

import (
	dberror "bufferquery/pkg/error"
)

// Error codes surfaced from pkg/physical operators. Configuration errors
// (§7 first bullet) come back from Open as a plain error the host checks
// with err != nil; programming errors (§7 third bullet) are also plain
// errors rather than a process abort, per design note §9.
const (
	CodePageTooSmall     = "PHYSICAL_PAGE_TOO_SMALL"
	CodeKeyArityMismatch = "PHYSICAL_KEY_ARITY_MISMATCH"
	CodeUnsupportedTag   = "PHYSICAL_UNSUPPORTED_VALUE_TAG"
	CodeCursorOutOfRange = "PHYSICAL_CURSOR_OUT_OF_RANGE"
	CodeBatchOverflow    = "PHYSICAL_BATCH_OVERFLOW"
	CodeSpillIO          = "PHYSICAL_SPILL_IO"
	CodeBufferTooSmall   = "PHYSICAL_BUFFER_TOO_SMALL"
)

func newDataError(op, msg string) *dberror.DBError {
	e := dberror.New(dberror.ErrCategoryData, CodeUnsupportedTag, msg)
	e.Operation = op
	e.Component = "physical"
	return e
}

func newConfigError(code, op, msg string) *dberror.DBError {
	e := dberror.New(dberror.ErrCategorySystem, code, msg)
	e.Operation = op
	e.Component = "physical"
	return e
}

func newUserError(code, op, msg string) *dberror.DBError {
	e := dberror.New(dberror.ErrCategoryUser, code, msg)
	e.Operation = op
	e.Component = "physical"
	return e
}

// wrapSpillError wraps an I/O error encountered while touching a spill
// file. Per §4.3/§7, a failure here during Open fails Open outright; a
// failure reached from Next is instead converted to end-of-stream by the
// caller, never passed through as a returned error.
func wrapSpillError(op string, cause error) *dberror.DBError {
	return dberror.Wrap(cause, CodeSpillIO, op, "physical")
}
