package schema

import (
	"strings"
	"testing"
)

func sampleDescription() Description {
	return Description{Tables: []Table{
		{
			Name: "users",
			Columns: []Column{
				{Name: "id", Type: "INTEGER"},
				{Name: "email", Type: "TEXT"},
			},
			RowCount: 100,
		},
		{
			Name: "orders",
			Columns: []Column{
				{Name: "id", Type: "INTEGER"},
				{Name: "total", Type: "REAL"},
			},
			RowCount: 500,
		},
		{
			Name: "products",
			Columns: []Column{
				{Name: "id", Type: "INTEGER"},
				{Name: "price", Type: "REAL"},
			},
			RowCount: 50,
		},
	}}
}

func TestFilter(t *testing.T) {
	t.Run("keeps only named tables", func(t *testing.T) {
		filtered := sampleDescription().Filter([]string{"products"})
		if len(filtered.Tables) != 1 {
			t.Fatalf("tables = %d, want 1", len(filtered.Tables))
		}
		if filtered.Tables[0].Name != "products" {
			t.Errorf("table = %q, want products", filtered.Tables[0].Name)
		}
	})

	t.Run("preserves schema order", func(t *testing.T) {
		filtered := sampleDescription().Filter([]string{"orders", "users"})
		if len(filtered.Tables) != 2 {
			t.Fatalf("tables = %d, want 2", len(filtered.Tables))
		}
		if filtered.Tables[0].Name != "users" || filtered.Tables[1].Name != "orders" {
			t.Errorf("order = [%s, %s], want schema order [users, orders]",
				filtered.Tables[0].Name, filtered.Tables[1].Name)
		}
	})

	t.Run("unknown names silently ignored", func(t *testing.T) {
		filtered := sampleDescription().Filter([]string{"users", "no_such_table"})
		if len(filtered.Tables) != 1 || filtered.Tables[0].Name != "users" {
			t.Errorf("tables = %v", filtered.Tables)
		}
	})

	t.Run("empty filter keeps everything", func(t *testing.T) {
		if got := sampleDescription().Filter(nil); len(got.Tables) != 3 {
			t.Errorf("tables = %d, want 3", len(got.Tables))
		}
		if got := sampleDescription().Filter([]string{}); len(got.Tables) != 3 {
			t.Errorf("tables = %d, want 3", len(got.Tables))
		}
	})

	t.Run("does not mutate the original", func(t *testing.T) {
		desc := sampleDescription()
		desc.Filter([]string{"orders"})
		if len(desc.Tables) != 3 {
			t.Errorf("original mutated: %d tables", len(desc.Tables))
		}
	})
}

func TestFormat(t *testing.T) {
	text := sampleDescription().Format()

	for _, want := range []string{
		"Table: users (100 rows)",
		"Table: orders (500 rows)",
		"Table: products (50 rows)",
		"  - email: TEXT",
		"  - total: REAL",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}

	// users comes before orders comes before products
	if strings.Index(text, "users") > strings.Index(text, "orders") {
		t.Error("tables rendered out of order")
	}
}

func TestSummarize(t *testing.T) {
	stats := Summarize(sampleDescription())
	if stats.TableCount != 3 {
		t.Errorf("TableCount = %d, want 3", stats.TableCount)
	}
	if stats.ColumnCount != 6 {
		t.Errorf("ColumnCount = %d, want 6", stats.ColumnCount)
	}
	if stats.TotalRows != 650 {
		t.Errorf("TotalRows = %d, want 650", stats.TotalRows)
	}
}
