package catalog

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ErrDuplicateName is returned when an insert collides with an existing
// hosting_name.
var ErrDuplicateName = errors.New("catalog: duplicate hosting name")

// ErrCategoryNotFound is returned when a referenced category id is unknown.
var ErrCategoryNotFound = errors.New("catalog: category not found")

// isUniqueViolation recognises Postgres (23505) and MySQL (1062) unique key
// failures.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

// isForeignKeyViolation recognises Postgres (23503) and MySQL (1452)
// foreign key failures.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1452
	}
	return false
}
