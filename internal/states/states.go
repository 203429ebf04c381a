// Package states merges the per-state customer aggregate with the two
// per-state product rankings into one analysis record per state.
package states

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/bharath-k9/Analytics-dashboard/internal/models"
	"github.com/bharath-k9/Analytics-dashboard/internal/normalize"
)

// MaxProducts caps the ranked product list kept per state.
const MaxProducts = 15

// Build seeds one entry per state code found in customers, then enriches the
// existing entries from the product sources. Product rows for states that
// were not seeded are dropped. The result is sorted by revenue, highest first.
func Build(customers []models.CustomerState, topPerState, allPerState []normalize.StateProduct) []models.StateAnalysis {
	index, order := seed(customers)

	for _, row := range topPerState {
		entry, ok := index[row.State]
		if !ok {
			continue
		}
		product := row.Product
		entry.TopProduct = &product
	}

	grouped := lo.GroupBy(allPerState, func(row normalize.StateProduct) string {
		return row.State
	})
	for code, rows := range grouped {
		entry, ok := index[code]
		if !ok {
			continue
		}
		entry.AllProducts = rank(rows)
	}

	out := make([]models.StateAnalysis, 0, len(order))
	for _, code := range order {
		out = append(out, *index[code])
	}
	slices.SortStableFunc(out, func(a, b models.StateAnalysis) int {
		return cmp.Compare(b.TotalRevenue, a.TotalRevenue)
	})
	return out
}

// seed indexes customer rows by state code. Rows without a code are skipped;
// repeated codes are summed into one entry.
func seed(customers []models.CustomerState) (map[string]*models.StateAnalysis, []string) {
	index := make(map[string]*models.StateAnalysis, len(customers))
	order := make([]string, 0, len(customers))
	for _, c := range customers {
		if c.State == "" || c.State == normalize.UnknownState {
			continue
		}
		entry, ok := index[c.State]
		if !ok {
			entry = &models.StateAnalysis{
				State:       c.State,
				AllProducts: []models.ProductRef{},
			}
			index[c.State] = entry
			order = append(order, c.State)
		}
		entry.TotalRevenue += c.Revenue
		entry.TotalCustomers += c.Customers
		entry.TotalSellers += c.Sellers
	}
	return index, order
}

func rank(rows []normalize.StateProduct) []models.ProductRef {
	products := lo.Map(rows, func(row normalize.StateProduct, _ int) models.ProductRef {
		return row.Product
	})
	slices.SortStableFunc(products, func(a, b models.ProductRef) int {
		return cmp.Compare(b.Revenue, a.Revenue)
	})
	if len(products) > MaxProducts {
		products = products[:MaxProducts]
	}
	return products
}

// Find returns the analysis record for code, ignoring case and whitespace.
func Find(list []models.StateAnalysis, code string) (models.StateAnalysis, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, s := range list {
		if s.State == code {
			return s, true
		}
	}
	return models.StateAnalysis{}, false
}

// SellerStates groups sellers by state and keeps the top n by revenue.
func SellerStates(sellers []models.SellerPerformance, n int) []models.SellerStateSummary {
	index := make(map[string]*models.SellerStateSummary)
	order := make([]string, 0)
	for _, s := range sellers {
		entry, ok := index[s.State]
		if !ok {
			entry = &models.SellerStateSummary{State: s.State}
			index[s.State] = entry
			order = append(order, s.State)
		}
		entry.Sellers++
		entry.Revenue += s.TotalRevenue
	}

	out := make([]models.SellerStateSummary, 0, len(order))
	for _, code := range order {
		out = append(out, *index[code])
	}
	slices.SortStableFunc(out, func(a, b models.SellerStateSummary) int {
		return cmp.Compare(b.Revenue, a.Revenue)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
