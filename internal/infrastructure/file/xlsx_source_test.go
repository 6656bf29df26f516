package file_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
	infrafile "github.com/mohammadpnp/identity-import/internal/infrastructure/file"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, rows [][]any) {
	t.Helper()

	book := excelize.NewFile()
	defer book.Close()

	sheet := book.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := book.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func TestXLSXSourceReadsRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "users.xlsx"), [][]any{
		{"user_id", "login_id", "first_name", "last_name", "email", "status"},
		{"U1", "alice", "Alice", "Smith", "alice@x.com", "active"},
		{"U2", "bob", "Bob", "Jones", "", "Deleted"},
	})

	source, err := infrafile.NewLocalSource(dir).Resolve("users.xlsx")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	records := readAll(t, source)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Line != 2 || records[0].FullName() != "Alice Smith" || records[0].Email != "alice@x.com" {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].Line != 3 || records[1].LoginID != "bob" || records[1].Status != "Deleted" {
		t.Fatalf("unexpected second record: %+v", records[1])
	}
}

func TestXLSXSourceRejectsNonUserSheet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "courses.xlsx"), [][]any{
		{"course_id", "short_name"},
		{"C1", "Math"},
	})

	source, err := infrafile.NewLocalSource(dir).Resolve("courses.xlsx")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := source.Open(context.Background()); !errors.Is(err, domain.ErrNotUserCSV) {
		t.Fatalf("expected ErrNotUserCSV, got %v", err)
	}
}
