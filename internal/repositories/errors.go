package repositories

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers
const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

// isDuplicateEntry reports whether err is a unique key violation
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// isMissingReference reports whether err is a foreign key violation on insert or update
func isMissingReference(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlNoReferencedRow
}

// pageOffset converts a 1-based page into a row offset
func pageOffset(page, count int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * count
}
