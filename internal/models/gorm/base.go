package gorm

import "github.com/google/uuid"

// assignID fills an empty primary key before insert. IDs are generated in
// the application so the schema works the same on Postgres and SQLite.
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
