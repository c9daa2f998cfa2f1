package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced when the database's uniqueness constraints
// fire. Constraints are the authority for code and pair uniqueness; the
// application-level pre-checks are only a fast path, so services must
// treat these as detected collisions or conflicts, never as fatal.
var (
	ErrDuplicateCode  = errors.New("code already exists")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrDuplicatePair  = errors.New("relationship already exists")
)

const uniqueViolation = "23505"

func mapUniqueViolation(err error, byConstraint map[string]error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}
	if mapped, ok := byConstraint[pqErr.Constraint]; ok {
		return mapped
	}
	return nil
}
