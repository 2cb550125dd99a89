package db

import (
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// MaxIDAttempts bounds how many random ids an insert tries before giving up.
const MaxIDAttempts = 5

// IDRange is an inclusive range of randomly drawn integer identifiers.
type IDRange struct {
	Min int
	Max int
}

var (
	// RecordIDs covers patients, appointments and procedures.
	RecordIDs = IDRange{Min: 1, Max: 999_999_999}
	// AlertIDs always have nine digits.
	AlertIDs = IDRange{Min: 100_000_000, Max: 999_999_999}
)

func (r IDRange) Next() int {
	return r.Min + rand.IntN(r.Max-r.Min+1)
}

func (r IDRange) Contains(id int) bool {
	return id >= r.Min && id <= r.Max
}

// IsUniqueViolation reports whether err is a unique_violation, optionally
// restricted to constraints whose name has the given suffix.
func IsUniqueViolation(err error, constraintSuffix string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraintSuffix == "" || strings.HasSuffix(pgErr.ConstraintName, constraintSuffix)
}

// ErrIDSpaceExhausted is returned when every drawn id was already taken.
var ErrIDSpaceExhausted = errors.New("could not allocate a free id")

// InsertWithID calls insert with freshly drawn ids until a row is written.
// insert reports false when the id was taken, which repositories detect with
// ON CONFLICT (id) DO NOTHING so an open transaction is never aborted.
func InsertWithID(r IDRange, insert func(id int) (bool, error)) (int, error) {
	for range MaxIDAttempts {
		id := r.Next()
		ok, err := insert(id)
		if err != nil {
			return 0, err
		}
		if ok {
			return id, nil
		}
	}
	return 0, ErrIDSpaceExhausted
}
