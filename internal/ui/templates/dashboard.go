// Package templates renders the dashboard shell. Panels are filled in by the
// Datastar SSE endpoints after the page loads.
package templates

//go:generate templ generate

import (
	"encoding/json"
	"strconv"
)

type DashboardProps struct {
	Title        string
	SelectedYear string
	Years        []int
	Currency     string
	Ready        bool
}

type panel struct {
	ID, Title string
}

// panels are patched by /sse/refresh-all and the per-panel SSE endpoints.
var panels = []panel{
	{"overview-content", "Overview"},
	{"monthly-content", "Monthly revenue"},
	{"yearly-content", "Revenue by quarter"},
	{"categories-content", "Categories and payment methods"},
	{"states-content", "Customers by state"},
	{"map-content", "Customer map"},
}

type yearOption struct {
	Value, Label string
	Selected     bool
}

// yearOptions lists "all" followed by the available years.
func yearOptions(props DashboardProps) []yearOption {
	out := make([]yearOption, 0, len(props.Years)+1)
	out = append(out, yearOption{Value: "all", Label: "All years", Selected: props.SelectedYear == "all"})
	for _, y := range props.Years {
		v := strconv.Itoa(y)
		out = append(out, yearOption{Value: v, Label: v, Selected: props.SelectedYear == v})
	}
	return out
}

// signals seeds the Datastar store with the page's initial filter state.
func signals(props DashboardProps) string {
	data, _ := json.Marshal(map[string]string{
		"selectedYear": props.SelectedYear,
		"currency":     props.Currency,
	})
	return string(data)
}
