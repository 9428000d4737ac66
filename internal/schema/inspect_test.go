package schema

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestInspectPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("suggestion_history").
			AddRow("users"))

	mock.ExpectQuery("SELECT column_name, data_type FROM information_schema.columns").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("id", "integer").
			AddRow("email", "text"))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(150))

	desc, err := Inspect(context.Background(), db, "postgres")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}

	if len(desc.Tables) != 1 {
		t.Fatalf("tables = %d, want 1 (housekeeping table must be excluded)", len(desc.Tables))
	}

	table := desc.Tables[0]
	if table.Name != "users" {
		t.Errorf("name = %q", table.Name)
	}
	if table.RowCount != 150 {
		t.Errorf("row count = %d, want 150", table.RowCount)
	}
	if len(table.Columns) != 2 || table.Columns[0].Name != "id" || table.Columns[1].Type != "text" {
		t.Errorf("columns = %v", table.Columns)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestInspectRowCountFailureIsNonFatal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("events"))

	mock.ExpectQuery("SELECT column_name, data_type FROM information_schema.columns").
		WithArgs("events").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("id", "integer"))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "events"`).
		WillReturnError(context.DeadlineExceeded)

	desc, err := Inspect(context.Background(), db, "postgres")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(desc.Tables) != 1 || desc.Tables[0].RowCount != 0 {
		t.Errorf("tables = %v, want events with row count 0", desc.Tables)
	}
}

func TestInspectUnsupportedDriver(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	if _, err := Inspect(context.Background(), db, "oracle"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
