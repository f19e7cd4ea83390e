package apperr

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SQLSTATE codes the store boundary cares about.
const (
	sqlStateInsufficientPrivilege = "42501"
	sqlStateUniqueViolation       = "23505"
	sqlStateForeignKeyViolation   = "23503"
	sqlStateCheckViolation        = "23514"
)

// Classify turns a driver/ORM error into an *Error with a structured kind.
// Row-level policy denials arrive as SQLSTATE 42501 from both the pgx
// (GORM) and lib/pq (sqlx) drivers.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, redis.Nil):
		return Wrap(KindNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(KindConflict, op, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return Wrap(KindValidation, op, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return Wrap(KindUnavailable, op, err)
	}

	if code := sqlState(err); code != "" {
		switch code {
		case sqlStateInsufficientPrivilege:
			return Wrap(KindPermissionDenied, op, err)
		case sqlStateUniqueViolation:
			return Wrap(KindConflict, op, err)
		case sqlStateForeignKeyViolation, sqlStateCheckViolation:
			return Wrap(KindValidation, op, err)
		}
	}

	return Wrap(KindInternal, op, err)
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
