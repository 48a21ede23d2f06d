package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Standardized errors returned by TranslateError. Callers can match them
// with errors.Is regardless of which driver produced the underlying error.
var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrDuplicateKey        = errors.New("duplicate key value violates a unique constraint")
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")
	ErrNotNullViolation    = errors.New("not-null constraint violation")
	ErrCheckViolation      = errors.New("check constraint violation")

	ErrUndefinedTable  = errors.New("relation does not exist")
	ErrUndefinedColumn = errors.New("column does not exist")
	ErrUndefinedObject = errors.New("object does not exist")
	ErrUndefinedSchema = errors.New("schema does not exist")

	ErrDataException     = errors.New("data exception")
	ErrInvalidInput      = errors.New("invalid input representation")
	ErrNumericOutOfRange = errors.New("numeric value out of range")

	ErrSerializationFailure = errors.New("serialization failure")
	ErrDeadlockDetected     = errors.New("deadlock detected")

	ErrConnectionFailed   = errors.New("connection to database failed")
	ErrTooManyConnections = errors.New("too many connections")
	ErrDiskFull           = errors.New("disk full")
	ErrOutOfMemory        = errors.New("out of memory")

	ErrInsufficientPrivilege = errors.New("insufficient privilege")
	ErrFeatureNotSupported   = errors.New("feature not supported")
	ErrQueryCanceled         = errors.New("query canceled")
	ErrAdminShutdown         = errors.New("server is shutting down")
	ErrTimeout               = errors.New("operation timed out")
)

// sqlstateErrors maps PostgreSQL SQLSTATE codes to standardized errors.
// Five-character entries match exactly, two-character entries match the
// error class.
var sqlstateErrors = map[string]error{
	"23505": ErrDuplicateKey,
	"23503": ErrForeignKeyViolation,
	"23502": ErrNotNullViolation,
	"23514": ErrCheckViolation,

	"42P01": ErrUndefinedTable,
	"42703": ErrUndefinedColumn,
	"42704": ErrUndefinedObject,
	"3F000": ErrUndefinedSchema,
	"3D000": ErrUndefinedSchema,
	"42501": ErrInsufficientPrivilege,

	"22P02": ErrInvalidInput,
	"22003": ErrNumericOutOfRange,
	"22":    ErrDataException,

	"40001": ErrSerializationFailure,
	"40P01": ErrDeadlockDetected,

	"08":    ErrConnectionFailed,
	"53100": ErrDiskFull,
	"53200": ErrOutOfMemory,
	"53300": ErrTooManyConnections,

	"0A000": ErrFeatureNotSupported,
	"57014": ErrQueryCanceled,
	"57P01": ErrAdminShutdown,
}

// TranslateError normalizes GORM and driver errors to the package's exported
// sentinels. The original error remains available through errors.Unwrap, so
// both errors.Is(err, postgres.ErrDuplicateKey) and inspection of the raw
// *pgconn.PgError keep working.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return wrap(ErrRecordNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return wrap(ErrDuplicateKey, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return wrap(ErrForeignKeyViolation, err)
	case errors.Is(err, context.DeadlineExceeded):
		return wrap(ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return wrap(ErrQueryCanceled, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if sentinel, ok := sqlstateErrors[pgErr.Code]; ok {
			return wrap(sentinel, err)
		}
		if len(pgErr.Code) >= 2 {
			if sentinel, ok := sqlstateErrors[pgErr.Code[:2]]; ok {
				return wrap(sentinel, err)
			}
		}
		return err
	}

	// Driver-independent fallbacks for errors that surface as plain strings.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "connection reset"):
		return wrap(ErrConnectionFailed, err)
	case strings.Contains(msg, "timeout"):
		return wrap(ErrTimeout, err)
	}

	return err
}

// translatedError pairs a sentinel with the original driver error so that
// errors.Is matches both.
type translatedError struct {
	sentinel error
	cause    error
}

func wrap(sentinel, cause error) error {
	return &translatedError{sentinel: sentinel, cause: cause}
}

func (e *translatedError) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *translatedError) Is(target error) bool {
	return errors.Is(e.sentinel, target)
}

func (e *translatedError) Unwrap() error {
	return e.cause
}

// ErrorCategory represents different categories of PostgreSQL errors.
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	CategoryNotFound
	CategoryConstraint
	CategorySchema
	CategoryData
	CategoryConcurrency
	CategoryConnection
	CategoryResource
	CategoryPermission
	CategoryCancellation
	CategoryUnsupported
	CategoryTimeout
)

// GetErrorCategory returns the category of the given error. The error is
// translated first, so raw driver errors categorize the same way as
// already-translated ones.
func GetErrorCategory(err error) ErrorCategory {
	err = TranslateError(err)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrForeignKeyViolation),
		errors.Is(err, ErrNotNullViolation), errors.Is(err, ErrCheckViolation):
		return CategoryConstraint
	case errors.Is(err, ErrUndefinedTable), errors.Is(err, ErrUndefinedColumn),
		errors.Is(err, ErrUndefinedObject), errors.Is(err, ErrUndefinedSchema):
		return CategorySchema
	case errors.Is(err, ErrDataException), errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNumericOutOfRange):
		return CategoryData
	case errors.Is(err, ErrSerializationFailure), errors.Is(err, ErrDeadlockDetected):
		return CategoryConcurrency
	case errors.Is(err, ErrConnectionFailed), errors.Is(err, ErrAdminShutdown):
		return CategoryConnection
	case errors.Is(err, ErrTooManyConnections), errors.Is(err, ErrDiskFull),
		errors.Is(err, ErrOutOfMemory):
		return CategoryResource
	case errors.Is(err, ErrInsufficientPrivilege):
		return CategoryPermission
	case errors.Is(err, ErrQueryCanceled):
		return CategoryCancellation
	case errors.Is(err, ErrFeatureNotSupported):
		return CategoryUnsupported
	case errors.Is(err, ErrTimeout):
		return CategoryTimeout
	default:
		return CategoryUnknown
	}
}

// IsRetryable returns true if the operation may succeed when run again
// without any change, such as after a serialization failure or a dropped
// connection.
func IsRetryable(err error) bool {
	err = TranslateError(err)
	switch {
	case errors.Is(err, ErrSerializationFailure),
		errors.Is(err, ErrDeadlockDetected),
		errors.Is(err, ErrConnectionFailed),
		errors.Is(err, ErrTooManyConnections),
		errors.Is(err, ErrAdminShutdown),
		errors.Is(err, ErrTimeout):
		return true
	default:
		return false
	}
}

// IsTemporary returns true if the error reflects a transient server
// condition rather than a mistake in the statement itself.
func IsTemporary(err error) bool {
	return IsRetryable(err) ||
		errors.Is(TranslateError(err), ErrOutOfMemory)
}

// IsCritical returns true for errors that indicate the server or the
// deployment is in a state that operator attention, not a retry, will fix.
func IsCritical(err error) bool {
	err = TranslateError(err)
	switch {
	case errors.Is(err, ErrDiskFull),
		errors.Is(err, ErrInsufficientPrivilege),
		errors.Is(err, ErrUndefinedSchema):
		return true
	default:
		return false
	}
}

// Method forms so classification is reachable through the Client interface.

func (p *Postgres) TranslateError(err error) error { return TranslateError(err) }

func (p *Postgres) GetErrorCategory(err error) ErrorCategory { return GetErrorCategory(err) }

func (p *Postgres) IsRetryable(err error) bool { return IsRetryable(err) }

func (p *Postgres) IsTemporary(err error) bool { return IsTemporary(err) }

func (p *Postgres) IsCritical(err error) bool { return IsCritical(err) }
