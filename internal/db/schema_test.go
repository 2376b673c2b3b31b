package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestHasTableAndColumn(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectQuery("information_schema\\.tables").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))
	mock.ExpectQuery("information_schema\\.columns").
		WithArgs("users", "deleted_at").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

	ctx := context.Background()
	if !HasTable(ctx, sqlDB, "users") {
		t.Fatalf("expected users table to exist")
	}
	if HasColumn(ctx, sqlDB, "users", "deleted_at") {
		t.Fatalf("expected deleted_at column to be missing")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestScanRecordsConvertsBytes(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT id, name FROM roles").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), []byte("admin")))

	rows, err := sqlDB.Query("SELECT id, name FROM roles")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	recs, err := ScanRecords(rows)
	if err != nil {
		t.Fatalf("ScanRecords: %v", err)
	}
	if len(recs) != 1 || recs[0]["name"] != "admin" || recs[0]["id"] != int64(1) {
		t.Fatalf("unexpected records: %#v", recs)
	}
}
