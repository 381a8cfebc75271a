package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique key is already taken.
var ErrDuplicate = errors.New("record already exists")

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// validID filters out ids Postgres would reject as malformed uuids; those can never match a row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
