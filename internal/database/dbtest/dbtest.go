// Package dbtest backs database.DB with go-sqlmock for store tests
package dbtest

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/matthieukhl/freshmart/internal/database"
)

// New returns a DB whose statements are checked against mock. Unmet
// expectations fail the test at cleanup.
func New(t testing.TB) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet database expectations: %v", err)
		}
		conn.Close()
	})
	return &database.DB{DB: conn}, mock
}
