package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func TestMigrate_Postgres(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer raw.Close()
	db := sqlx.NewDb(raw, "postgres")

	for _, table := range []string{"category", "hosting", "hosting_category"} {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS " + table + " (")).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMigrate_StopsOnError(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer raw.Close()
	db := sqlx.NewDb(raw, "mysql")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS category").
		WillReturnError(errors.New("denied"))

	if err := Migrate(context.Background(), db); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMigrate_UnknownDriver(t *testing.T) {
	raw, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer raw.Close()

	if err := Migrate(context.Background(), sqlx.NewDb(raw, "sqlite3")); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestSchemas_ShareTablesAndConstraints(t *testing.T) {
	for driver, stmts := range schemas {
		if len(stmts) != 3 {
			t.Fatalf("%s: want 3 statements, got %d", driver, len(stmts))
		}
		all := stmts[0] + stmts[1] + stmts[2]
		for _, want := range []string{"unique_hosting_name", "ON DELETE CASCADE", "PRIMARY KEY (hosting_id, category_id)"} {
			if !regexp.MustCompile(regexp.QuoteMeta(want)).MatchString(all) {
				t.Errorf("%s: schema lacks %q", driver, want)
			}
		}
	}
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	if _, err := Open("sqlite3", "file::memory:"); err == nil {
		t.Fatalf("expected error")
	}
}
