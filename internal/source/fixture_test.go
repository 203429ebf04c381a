package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFixtureQuerier_Query(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "customers_by_state.yaml", `
- state: SP
  customers: 41746
  revenue: 5998226.96
- state: RJ
  customers: 12852
  revenue: 2144379.69
`)
	writeFixture(t, dir, "top_products.json", `[{"product_id":"a"},{"product_id":"b"},{"product_id":"c"}]`)

	q := NewFixtureQuerier(dir)

	rows, err := q.Query(context.Background(), Resource{Name: CustomersByState})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(rows) != 2 || rows[1]["state"] != "RJ" {
		t.Errorf("rows = %v", rows)
	}

	rows, err = q.Query(context.Background(), Resource{Name: TopProducts, Limit: 2})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("limit not applied: %d rows", len(rows))
	}
}

func TestFixtureQuerier_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "category_sales.yml", "state: [unclosed")

	q := NewFixtureQuerier(dir)

	if _, err := q.Query(context.Background(), Resource{Name: PaymentMethods}); !errors.Is(err, ErrAbsent) {
		t.Errorf("missing file error = %v, want ErrAbsent", err)
	}
	if _, err := q.Query(context.Background(), Resource{Name: CategorySales}); err == nil || errors.Is(err, ErrAbsent) {
		t.Errorf("malformed file error = %v, want decode failure", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := q.Query(ctx, Resource{Name: CategorySales}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled error = %v", err)
	}
}
