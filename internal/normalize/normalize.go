package normalize

import (
	"cmp"
	"slices"

	"github.com/bharath-k9/Analytics-dashboard/internal/models"
	"github.com/bharath-k9/Analytics-dashboard/internal/source"
)

const (
	unknown        = "Unknown"
	unknownProduct = "Unknown Product"

	// UnknownState labels customer rows that carry no state code.
	UnknownState = unknown
)

var monthlyFields = struct {
	Month, Label, Revenue, Orders Field
}{
	Month:   field(nil, "month", "month_iso", "month_start"),
	Label:   field("", "month_label"),
	Revenue: field(0, "revenue", "total_revenue"),
	Orders:  field(0, "orders", "order_count"),
}

var categoryFields = struct {
	Name, Revenue, Items, AvgPrice Field
}{
	Name:     field(unknown, "product_category_name", "category"),
	Revenue:  field(0, "total_revenue", "revenue"),
	Items:    field(0, "items_sold", "orders_count"),
	AvgPrice: field(nil, "avg_price"),
}

var paymentFields = struct {
	Type, Count Field
}{
	Type:  field(unknown, "payment_type"),
	Count: field(0, "count", "total_count"),
}

var customerFields = struct {
	State, Customers, Revenue, Sellers Field
}{
	State:     field("", "state", "customer_state"),
	Customers: field(0, "customers", "customer_count"),
	Revenue:   field(0, "revenue", "total_revenue"),
	Sellers:   field(0, "sellers", "seller_count"),
}

var productFields = struct {
	ID, Category, DisplayName, Revenue, Units, AvgPrice, Sellers Field
}{
	ID:          field("", "product_id"),
	Category:    field(unknown, "product_category_name"),
	DisplayName: field(unknownProduct, "product_display_name", "product_id"),
	Revenue:     field(0, "revenue", "total_revenue"),
	Units:       field(0, "units_sold", "quantity"),
	AvgPrice:    field(nil, "avg_price"),
	Sellers:     field(0, "seller_count"),
}

var stateProductFields = struct {
	State, ID, DisplayName, Category, Revenue, Units Field
}{
	State:       field("", "state", "customer_state"),
	ID:          field("", "product_id"),
	DisplayName: field(unknownProduct, "product_display_name", "product_id"),
	Category:    field(unknown, "product_category_name"),
	Revenue:     field(0, "total_revenue", "revenue"),
	Units:       field(0, "units_sold", "quantity"),
}

var sellerFields = struct {
	ID, City, State, Orders, Revenue, Products, AvgPrice Field
}{
	ID:       field("", "seller_id"),
	City:     field(unknown, "seller_city"),
	State:    field("", "seller_state"),
	Orders:   field(0, "total_orders", "orders"),
	Revenue:  field(0, "total_revenue", "revenue"),
	Products: field(0, "unique_products"),
	AvgPrice: field(nil, "avg_item_price"),
}

// MonthlyRow is a monthly revenue row before its date is resolved.
type MonthlyRow struct {
	Month   any
	Label   string
	Revenue float64
	Orders  int64
}

// StateProduct is one product ranking row keyed by state code.
type StateProduct struct {
	State   string
	Product models.ProductRef
}

func MonthlyRows(rows []source.Row) []MonthlyRow {
	out := make([]MonthlyRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, MonthlyRow{
			Month:   monthlyFields.Month.Value(row),
			Label:   monthlyFields.Label.Text(row),
			Revenue: monthlyFields.Revenue.Number(row),
			Orders:  monthlyFields.Orders.Int(row),
		})
	}
	return out
}

func Categories(rows []source.Row) []models.CategoryPerformance {
	out := make([]models.CategoryPerformance, 0, len(rows))
	for _, row := range rows {
		revenue := categoryFields.Revenue.Number(row)
		items := categoryFields.Items.Int(row)
		out = append(out, models.CategoryPerformance{
			Category:     categoryFields.Name.Text(row),
			TotalRevenue: revenue,
			ItemsSold:    items,
			AvgPrice:     averageOr(categoryFields.AvgPrice, row, revenue, items),
		})
	}
	sortDesc(out, func(c models.CategoryPerformance) float64 { return c.TotalRevenue })
	return out
}

func PaymentMethods(rows []source.Row) []models.PaymentMethodCount {
	out := make([]models.PaymentMethodCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.PaymentMethodCount{
			PaymentType: paymentFields.Type.Text(row),
			Count:       paymentFields.Count.Int(row),
		})
	}
	sortDesc(out, func(p models.PaymentMethodCount) int64 { return p.Count })
	return out
}

func CustomerStates(rows []source.Row) []models.CustomerState {
	out := make([]models.CustomerState, 0, len(rows))
	for _, row := range rows {
		state := customerFields.State.StateCode(row)
		if state == "" {
			state = UnknownState
		}
		out = append(out, models.CustomerState{
			State:     state,
			Customers: customerFields.Customers.Int(row),
			Revenue:   customerFields.Revenue.Number(row),
			Sellers:   customerFields.Sellers.Int(row),
		})
	}
	sortDesc(out, func(c models.CustomerState) float64 { return c.Revenue })
	return out
}

func Products(rows []source.Row) []models.ProductSummary {
	out := make([]models.ProductSummary, 0, len(rows))
	for _, row := range rows {
		revenue := productFields.Revenue.Number(row)
		units := productFields.Units.Int(row)
		out = append(out, models.ProductSummary{
			ProductID:   productFields.ID.Text(row),
			Category:    productFields.Category.Text(row),
			DisplayName: productFields.DisplayName.Text(row),
			Revenue:     revenue,
			UnitsSold:   units,
			AvgPrice:    averageOr(productFields.AvgPrice, row, revenue, units),
			SellerCount: productFields.Sellers.Int(row),
		})
	}
	sortDesc(out, func(p models.ProductSummary) float64 { return p.Revenue })
	return out
}

// StateProducts keeps input order; ranking is left to the state engine.
func StateProducts(rows []source.Row) []StateProduct {
	out := make([]StateProduct, 0, len(rows))
	for _, row := range rows {
		out = append(out, StateProduct{
			State: stateProductFields.State.StateCode(row),
			Product: models.ProductRef{
				ID:          stateProductFields.ID.Text(row),
				DisplayName: stateProductFields.DisplayName.Text(row),
				Category:    stateProductFields.Category.Text(row),
				Revenue:     stateProductFields.Revenue.Number(row),
				Units:       stateProductFields.Units.Int(row),
			},
		})
	}
	return out
}

func Sellers(rows []source.Row) []models.SellerPerformance {
	out := make([]models.SellerPerformance, 0, len(rows))
	for _, row := range rows {
		revenue := sellerFields.Revenue.Number(row)
		orders := sellerFields.Orders.Int(row)
		out = append(out, models.SellerPerformance{
			SellerID:       sellerFields.ID.Text(row),
			City:           sellerFields.City.Text(row),
			State:          sellerFields.State.StateCode(row),
			TotalOrders:    orders,
			TotalRevenue:   revenue,
			UniqueProducts: sellerFields.Products.Int(row),
			AvgItemPrice:   averageOr(sellerFields.AvgPrice, row, revenue, orders),
		})
	}
	sortDesc(out, func(s models.SellerPerformance) float64 { return s.TotalRevenue })
	return out
}

// averageOr prefers the source's own average and otherwise divides total
// by count, treating a zero count as one.
func averageOr(f Field, row source.Row, total float64, count int64) float64 {
	if _, ok := f.Lookup(row); ok {
		return f.Number(row)
	}
	return total / float64(max(1, count))
}

func sortDesc[T any, K cmp.Ordered](items []T, key func(T) K) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(key(b), key(a))
	})
}
