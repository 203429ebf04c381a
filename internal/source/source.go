// Package source fetches the named analytics resources from the hosted
// backend and isolates every failure to the resource that produced it.
package source

import (
	"context"
	"errors"
	"slices"
	"time"
)

// Row is one untyped record as returned by the backend.
type Row map[string]any

type Resource struct {
	Name  string
	Limit int
}

const (
	MonthlyRevenue     = "monthly_revenue"
	CategorySales      = "category_sales"
	PaymentMethods     = "payment_methods"
	CustomersByState   = "customers_by_state"
	TopProducts        = "top_products"
	TopProductsByState = "top_products_by_state"
	TopProductPerState = "top_product_per_state"
	SellerPerformance  = "seller_performance"
)

// Resources is the fixed set of queries issued on every load.
var Resources = []Resource{
	{Name: MonthlyRevenue},
	{Name: CategorySales},
	{Name: PaymentMethods},
	{Name: CustomersByState},
	{Name: TopProducts, Limit: 500},
	{Name: TopProductsByState, Limit: 2000},
	{Name: TopProductPerState},
	{Name: SellerPerformance},
}

// ErrAbsent reports that the backend has no resource with the requested name.
var ErrAbsent = errors.New("resource not found")

type Querier interface {
	Query(ctx context.Context, res Resource) ([]Row, error)
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusAbsent  Status = "absent"
)

type Result struct {
	Status   Status
	Rows     []Row
	Err      error
	Duration time.Duration
}

// Results maps resource names to the outcome of their fetch.
type Results map[string]Result

// Rows returns the rows of a successful fetch. Failed, absent and unknown
// resources all yield an empty slice.
func (r Results) Rows(name string) []Row {
	res, ok := r[name]
	if !ok || res.Status != StatusSuccess || res.Rows == nil {
		return []Row{}
	}
	return res.Rows
}

type Diagnostic struct {
	Source   string        `json:"source"`
	Status   Status        `json:"status"`
	Rows     int           `json:"rows"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Diagnostics lists one entry per fetched resource, sorted by name.
func (r Results) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, 0, len(r))
	for name, res := range r {
		d := Diagnostic{
			Source:   name,
			Status:   res.Status,
			Rows:     len(res.Rows),
			Duration: res.Duration,
		}
		if res.Err != nil {
			d.Error = res.Err.Error()
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Diagnostic) int {
		if a.Source < b.Source {
			return -1
		}
		if a.Source > b.Source {
			return 1
		}
		return 0
	})
	return out
}
