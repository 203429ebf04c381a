// Package view derives the dashboard view model from fetched source results
// and composes the year-filtered slice shown to the user.
package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bharath-k9/Analytics-dashboard/internal/models"
	"github.com/bharath-k9/Analytics-dashboard/internal/normalize"
	"github.com/bharath-k9/Analytics-dashboard/internal/source"
	"github.com/bharath-k9/Analytics-dashboard/internal/states"
	"github.com/bharath-k9/Analytics-dashboard/internal/timeseries"
)

// SellerStateLimit caps the seller-by-state breakdown.
const SellerStateLimit = 10

// Selection is the active year filter. The zero value selects all years.
type Selection struct {
	Year int
}

// All is the unfiltered selection.
var All = Selection{}

func (s Selection) IsAll() bool { return s.Year == 0 }

func (s Selection) String() string {
	if s.IsAll() {
		return "all"
	}
	return strconv.Itoa(s.Year)
}

// ParseYear accepts "", "all" (any case) or a four-digit year.
func ParseYear(raw string) (Selection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return All, nil
	}
	if len(raw) != 4 {
		return All, fmt.Errorf("invalid year %q: expected \"all\" or YYYY", raw)
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1000 {
		return All, fmt.Errorf("invalid year %q: expected \"all\" or YYYY", raw)
	}
	return Selection{Year: year}, nil
}

// Summarize derives the headline metrics. Revenue is the sum of the yearly
// rollup totals, so a single-year series reports exactly that year's Total.
// Orders come from the monthly series and customers from the per-state
// aggregate. The average order value is 0 when there are no orders.
func Summarize(series []models.MonthlyTrend, customers []models.CustomerState) models.OverallSummary {
	var revenue float64
	for _, r := range timeseries.Yearly(series) {
		revenue += r.Total
	}
	var orders int64
	for _, m := range series {
		orders += m.Orders
	}

	var total int64
	for _, c := range customers {
		total += c.Customers
	}

	return models.OverallSummary{
		TotalRevenue:   revenue,
		TotalOrders:    orders,
		TotalCustomers: total,
		AvgOrderValue:  average(revenue, orders),
	}
}

func average(revenue float64, orders int64) float64 {
	if orders == 0 {
		return 0
	}
	return decimal.NewFromFloat(revenue).Div(decimal.NewFromInt(orders)).InexactFloat64()
}

// Build normalizes every source and derives the full, unfiltered view model.
// Failed or absent sources contribute empty collections.
func Build(results source.Results) models.ViewModel {
	series := timeseries.Monthly(normalize.MonthlyRows(results.Rows(source.MonthlyRevenue)))
	customers := normalize.CustomerStates(results.Rows(source.CustomersByState))
	sellers := normalize.Sellers(results.Rows(source.SellerPerformance))

	return models.ViewModel{
		Overall:             Summarize(series, customers),
		MonthlyTrends:       series,
		YearlyRollups:       timeseries.Yearly(series),
		AvailableYears:      timeseries.Years(series),
		CategoryPerformance: normalize.Categories(results.Rows(source.CategorySales)),
		PaymentMethods:      normalize.PaymentMethods(results.Rows(source.PaymentMethods)),
		CustomersByState:    customers,
		TopProducts:         normalize.Products(results.Rows(source.TopProducts)),
		StateAnalysis: states.Build(
			customers,
			normalize.StateProducts(results.Rows(source.TopProductPerState)),
			normalize.StateProducts(results.Rows(source.TopProductsByState)),
		),
		SellerPerformance: sellers,
		SellerStates:      states.SellerStates(sellers, SellerStateLimit),
	}
}

// Compose returns the slice of vm for sel. Only the time series and the
// metrics computed from it are filtered; customers and every other view pass
// through unchanged. Labels are deduplicated again over the filtered series.
func Compose(vm models.ViewModel, sel Selection) models.ViewModel {
	if sel.IsAll() {
		return vm
	}

	series := make([]models.MonthlyTrend, 0)
	for _, m := range vm.MonthlyTrends {
		if m.Year() == sel.Year {
			series = append(series, m)
		}
	}

	series = timeseries.DedupeLabels(series)

	out := vm
	out.MonthlyTrends = series
	out.YearlyRollups = timeseries.Yearly(series)

	summary := Summarize(series, nil)
	summary.TotalCustomers = vm.Overall.TotalCustomers
	out.Overall = summary
	return out
}
