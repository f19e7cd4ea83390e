package repositories

import (
	"fmt"

	"roboclub/clubhouse/internal/apperr"

	"gorm.io/gorm/clause"
)

// storeErr wraps err with msg and tags it with a structured kind.
func storeErr(op, msg string, err error) error {
	if err == nil {
		return nil
	}
	return apperr.Classify(op, fmt.Errorf("%s: %w", msg, err))
}

func notFound(op, what string) error {
	return apperr.New(apperr.KindNotFound, op, what+" not found")
}

// lockForUpdate is applied only on Postgres; SQLite has no row locks.
var lockForUpdate = clause.Locking{Strength: "UPDATE"}
