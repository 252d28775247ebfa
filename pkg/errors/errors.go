package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code of the outermost AppError in err's chain,
// or "" when there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

var (
	ErrConfigLoad          = "CONFIG_LOAD_ERROR"
	ErrDatabaseConnect     = "DATABASE_CONNECT_ERROR"
	ErrLedgerWrite         = "LEDGER_WRITE_ERROR"
	ErrDuplicateAttendance = "DUPLICATE_ATTENDANCE"
	ErrRebuild             = "REBUILD_ERROR"
	ErrScopedRecompute     = "SCOPED_RECOMPUTE_ERROR"
	ErrBulkLoadState       = "BULK_LOAD_STATE_ERROR"
	ErrImport              = "IMPORT_ERROR"
	ErrNotFound            = "NOT_FOUND"
)
