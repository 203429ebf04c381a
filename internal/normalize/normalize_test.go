package normalize

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bharath-k9/Analytics-dashboard/internal/models"
	"github.com/bharath-k9/Analytics-dashboard/internal/source"
)

func TestField_Lookup(t *testing.T) {
	f := field(0, "revenue", "total_revenue")

	tests := []struct {
		name   string
		row    source.Row
		want   any
		wantOK bool
	}{
		{"first key", source.Row{"revenue": 10, "total_revenue": 20}, 10, true},
		{"fallback key", source.Row{"total_revenue": 20}, 20, true},
		{"nil skipped", source.Row{"revenue": nil, "total_revenue": 20}, 20, true},
		{"blank string skipped", source.Row{"revenue": "  ", "total_revenue": 20}, 20, true},
		{"zero is present", source.Row{"revenue": 0, "total_revenue": 20}, 0, true},
		{"none", source.Row{"other": 1}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := f.Lookup(tt.row)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Lookup() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMonthlyRows(t *testing.T) {
	rows := []source.Row{
		{"month": "2023-01", "revenue": "1000", "orders": json.Number("10")},
		{"month_iso": "2023-02-01T00:00:00Z", "total_revenue": 2000.5, "order_count": 12, "month_label": "Feb"},
		{"revenue": map[string]any{"bad": true}},
	}

	got := MonthlyRows(rows)
	want := []MonthlyRow{
		{Month: "2023-01", Revenue: 1000, Orders: 10},
		{Month: "2023-02-01T00:00:00Z", Label: "Feb", Revenue: 2000.5, Orders: 12},
		{Month: nil, Revenue: 0, Orders: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MonthlyRows() mismatch (-want +got):\n%s", diff)
	}
}

func TestCategories(t *testing.T) {
	rows := []source.Row{
		{"category": "toys", "revenue": 100, "orders_count": 4},
		{"product_category_name": "health_beauty", "total_revenue": 900, "items_sold": 3, "avg_price": 250},
		{},
	}

	got := Categories(rows)
	if len(got) != 3 {
		t.Fatalf("Categories() returned %d rows, want 3", len(got))
	}
	if got[0].Category != "health_beauty" || got[0].AvgPrice != 250 {
		t.Errorf("first category = %+v", got[0])
	}
	if got[1].Category != "toys" || got[1].AvgPrice != 25 {
		t.Errorf("derived avg price = %+v, want 25", got[1])
	}
	if got[2].Category != "Unknown" || got[2].AvgPrice != 0 {
		t.Errorf("defaults = %+v", got[2])
	}
}

func TestPaymentMethods_SortedDescending(t *testing.T) {
	rows := []source.Row{
		{"payment_type": "voucher", "count": 5},
		{"payment_type": "credit_card", "total_count": "76795"},
		{"count": 1},
	}

	got := PaymentMethods(rows)
	want := []models.PaymentMethodCount{
		{PaymentType: "credit_card", Count: 76795},
		{PaymentType: "voucher", Count: 5},
		{PaymentType: "Unknown", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PaymentMethods() mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomerStates(t *testing.T) {
	rows := []source.Row{
		{"state": " rj ", "customers": 10, "revenue": 50},
		{"customer_state": "SP", "customer_count": "40", "total_revenue": 400, "sellers": 7},
		{"customers": 3},
		{"state": "  ", "customers": 2},
	}

	got := CustomerStates(rows)
	want := []models.CustomerState{
		{State: "SP", Customers: 40, Revenue: 400, Sellers: 7},
		{State: "RJ", Customers: 10, Revenue: 50},
		{State: UnknownState, Customers: 3},
		{State: UnknownState, Customers: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CustomerStates() mismatch (-want +got):\n%s", diff)
	}
}

func TestProducts(t *testing.T) {
	rows := []source.Row{
		{"product_id": "p1", "revenue": 100, "units_sold": 4},
		{"product_id": "p2", "product_display_name": "Desk Lamp", "product_category_name": "home", "total_revenue": 300, "quantity": 2, "seller_count": 3},
		{},
	}

	got := Products(rows)
	if got[0].DisplayName != "Desk Lamp" || got[0].UnitsSold != 2 || got[0].AvgPrice != 150 || got[0].SellerCount != 3 {
		t.Errorf("top product = %+v", got[0])
	}
	if got[1].DisplayName != "p1" || got[1].Category != "Unknown" {
		t.Errorf("display name fallback = %+v", got[1])
	}
	if got[2].DisplayName != "Unknown Product" || got[2].ProductID != "" {
		t.Errorf("defaults = %+v", got[2])
	}
}

func TestStateProducts_PreservesOrder(t *testing.T) {
	rows := []source.Row{
		{"state": "sp", "product_id": "a", "total_revenue": 1},
		{"state": "RJ", "product_id": "b", "revenue": 5, "units_sold": 2},
	}

	got := StateProducts(rows)
	if got[0].State != "SP" || got[0].Product.ID != "a" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].State != "RJ" || got[1].Product.Revenue != 5 || got[1].Product.DisplayName != "b" {
		t.Errorf("second = %+v", got[1])
	}
}

func TestSellers(t *testing.T) {
	rows := []source.Row{
		{"seller_id": "s1", "seller_city": "campinas", "seller_state": "sp", "total_orders": 4, "total_revenue": 100},
		{"seller_id": "s2", "seller_state": "MG", "orders": 1, "revenue": 300, "avg_item_price": 99},
	}

	got := Sellers(rows)
	if got[0].SellerID != "s2" || got[0].AvgItemPrice != 99 || got[0].City != "Unknown" {
		t.Errorf("first seller = %+v", got[0])
	}
	if got[1].State != "SP" || got[1].AvgItemPrice != 25 {
		t.Errorf("second seller = %+v", got[1])
	}
}

func TestNormalizers_EmptyInput(t *testing.T) {
	if got := Categories(nil); got == nil || len(got) != 0 {
		t.Errorf("Categories(nil) = %#v, want empty non-nil slice", got)
	}
	if got := StateProducts(nil); got == nil || len(got) != 0 {
		t.Errorf("StateProducts(nil) = %#v, want empty non-nil slice", got)
	}
}
