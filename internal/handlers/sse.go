package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/bharath-k9/Analytics-dashboard/internal/coerce"
	"github.com/bharath-k9/Analytics-dashboard/internal/config"
	"github.com/bharath-k9/Analytics-dashboard/internal/errors"
	"github.com/bharath-k9/Analytics-dashboard/internal/format"
	"github.com/bharath-k9/Analytics-dashboard/internal/geo"
	"github.com/bharath-k9/Analytics-dashboard/internal/models"
	"github.com/bharath-k9/Analytics-dashboard/internal/services"
)

const maxStateRows = 27

var fragments = template.Must(template.New("fragments").Parse(`
{{define "overview"}}<div id="overview-content" class="kpi-grid">
<div class="kpi"><span class="kpi-label">Total revenue</span><strong>{{.TotalRevenue}}</strong></div>
<div class="kpi"><span class="kpi-label">Orders</span><strong>{{.TotalOrders}}</strong></div>
<div class="kpi"><span class="kpi-label">Customers</span><strong>{{.TotalCustomers}}</strong></div>
<div class="kpi"><span class="kpi-label">Avg order value</span><strong>{{.AvgOrderValue}}</strong></div>
</div>{{end}}

{{define "yearly"}}<div id="yearly-content">
<table class="modern-table">
<thead><tr><th>Year</th><th>Q1</th><th>Q2</th><th>Q3</th><th>Q4</th><th>Total</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.Year}}</td><td>{{.Q1}}</td><td>{{.Q2}}</td><td>{{.Q3}}</td><td>{{.Q4}}</td><td><strong>{{.Total}}</strong></td></tr>
{{else}}<tr><td colspan="6">No data for this period</td></tr>
{{end}}</tbody>
</table>
</div>{{end}}

{{define "states"}}<div id="states-content">
<table class="modern-table">
<thead><tr><th>State</th><th>Customers</th><th>Revenue</th><th>Sellers</th><th>Top product</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.State}}</td>
<td>{{.Customers}}</td>
<td><strong>{{.Revenue}}</strong></td>
<td>{{.Sellers}}</td>
<td>{{if .TopProduct}}<span class="category-badge">{{.TopProduct}}</span>{{else}}-{{end}}</td>
</tr>{{else}}<tr><td colspan="5">No state data</td></tr>
{{end}}</tbody>
</table>
</div>{{end}}

{{define "error"}}<div id="dashboard-error" class="error-banner">{{.}}</div>{{end}}
`))

type yearlyRow struct {
	Year                  string
	Q1, Q2, Q3, Q4, Total string
}

type stateRow struct {
	State      string
	Customers  string
	Revenue    string
	Sellers    string
	TopProduct string
}

type SSEHandlers struct {
	views     viewSource
	regions   []geo.Region
	display   config.DisplayConfig
	formatter *format.Formatter
	logger    *slog.Logger
}

func NewSSEHandlers(
	analytics *services.Analytics,
	regions []geo.Region,
	display config.DisplayConfig,
	formatter *format.Formatter,
	logger *slog.Logger,
) *SSEHandlers {
	return &SSEHandlers{
		views:     viewSource{analytics: analytics, defaultYear: display.DefaultYear},
		regions:   regions,
		display:   display,
		formatter: formatter,
		logger:    logger,
	}
}

type dashboardSignals struct {
	SelectedYear any `json:"selectedYear"`
}

// selectedYear prefers the year query parameter and falls back to the
// selectedYear signal sent by the page.
func (h *SSEHandlers) selectedYear(r *http.Request) string {
	if year := r.URL.Query().Get("year"); year != "" {
		return year
	}
	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return ""
	}
	year, _ := coerce.String(signals.SelectedYear)
	return year
}

func render(name string, data any) (string, error) {
	var buf strings.Builder
	err := fragments.ExecuteTemplate(&buf, name, data)
	return buf.String(), err
}

// stream opens the SSE response and resolves the view model. On failure the
// error banner is patched instead and ok is false.
func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request) (*datastar.ServerSentEventGenerator, models.ViewModel, string, bool) {
	year := h.selectedYear(r)
	sse := datastar.NewSSE(w, r)

	vm, sel, err := h.views.resolve(year)
	if err != nil {
		message := errors.Message(err)
		h.logger.Warn("sse view unavailable", "path", r.URL.Path, "error", err)
		if html, renderErr := render("error", message); renderErr == nil {
			sse.PatchElements(html)
		}
		return sse, models.ViewModel{}, "", false
	}

	if html, err := render("error", ""); err == nil {
		sse.PatchElements(html)
	}
	return sse, vm, sel.String(), true
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) {
	data, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return
	}
	sse.PatchSignals(data)
}

func (h *SSEHandlers) patchTemplate(sse *datastar.ServerSentEventGenerator, name string, data any) {
	html, err := render(name, data)
	if err != nil {
		h.logger.Error("render fragment", "fragment", name, "error", err)
		return
	}
	sse.PatchElements(html)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) yearlyRows(rollups []models.YearlyRollup) []yearlyRow {
	rows := make([]yearlyRow, 0, len(rollups))
	for _, y := range rollups {
		rows = append(rows, yearlyRow{
			Year:  y.Year,
			Q1:    h.formatter.Currency(y.Q1),
			Q2:    h.formatter.Currency(y.Q2),
			Q3:    h.formatter.Currency(y.Q3),
			Q4:    h.formatter.Currency(y.Q4),
			Total: h.formatter.Currency(y.Total),
		})
	}
	return rows
}

func (h *SSEHandlers) stateRows(analysis []models.StateAnalysis) []stateRow {
	if len(analysis) > maxStateRows {
		analysis = analysis[:maxStateRows]
	}
	rows := make([]stateRow, 0, len(analysis))
	for _, s := range analysis {
		row := stateRow{
			State:     s.State,
			Customers: h.formatter.Count(s.TotalCustomers),
			Revenue:   h.formatter.Currency(s.TotalRevenue),
			Sellers:   h.formatter.Count(s.TotalSellers),
		}
		if s.TopProduct != nil && h.display.ShowTopProductName {
			row.TopProduct = s.TopProduct.DisplayName
		}
		rows = append(rows, row)
	}
	return rows
}

func (h *SSEHandlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	sse, vm, year, ok := h.stream(w, r)
	if ok {
		h.patchTemplate(sse, "overview", formatSummary(h.formatter, vm.Overall))
		h.patchSignals(sse, map[string]any{"overview": vm.Overall, "selectedYear": year})
	}
	flush(w)
}

func (h *SSEHandlers) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	sse, vm, year, ok := h.stream(w, r)
	if ok {
		h.patchSignals(sse, map[string]any{
			"monthlyData":  vm.MonthlyTrends,
			"selectedYear": year,
		})
		sse.PatchElements(`<div id="monthly-content">Monthly revenue chart data loaded</div>`)
	}
	flush(w)
}

func (h *SSEHandlers) HandleYearly(w http.ResponseWriter, r *http.Request) {
	sse, vm, year, ok := h.stream(w, r)
	if ok {
		h.patchTemplate(sse, "yearly", h.yearlyRows(vm.YearlyRollups))
		h.patchSignals(sse, map[string]any{
			"yearlyData":     vm.YearlyRollups,
			"availableYears": vm.AvailableYears,
			"selectedYear":   year,
		})
	}
	flush(w)
}

func (h *SSEHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	sse, vm, _, ok := h.stream(w, r)
	if ok {
		h.patchSignals(sse, map[string]any{
			"categoryData": vm.CategoryPerformance,
			"paymentData":  vm.PaymentMethods,
		})
		sse.PatchElements(`<div id="categories-content">Category chart data loaded</div>`)
	}
	flush(w)
}

func (h *SSEHandlers) HandleStates(w http.ResponseWriter, r *http.Request) {
	sse, vm, _, ok := h.stream(w, r)
	if ok {
		h.patchTemplate(sse, "states", h.stateRows(vm.StateAnalysis))
		h.patchSignals(sse, map[string]any{"sellerStates": vm.SellerStates})
	}
	flush(w)
}

func (h *SSEHandlers) mapFeatures(vm models.ViewModel) []geo.Feature {
	return geo.Annotate(h.regions, vm.StateAnalysis, mapOptions(h.display))
}

func (h *SSEHandlers) HandleMap(w http.ResponseWriter, r *http.Request) {
	sse, vm, _, ok := h.stream(w, r)
	if ok {
		h.patchSignals(sse, map[string]any{"mapData": h.mapFeatures(vm)})
		sse.PatchElements(`<div id="map-content">Map data loaded</div>`)
	}
	flush(w)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse, vm, year, ok := h.stream(w, r)
	if !ok {
		flush(w)
		return
	}

	h.patchTemplate(sse, "overview", formatSummary(h.formatter, vm.Overall))
	h.patchTemplate(sse, "yearly", h.yearlyRows(vm.YearlyRollups))
	h.patchTemplate(sse, "states", h.stateRows(vm.StateAnalysis))

	// Send all signals in one call
	h.patchSignals(sse, map[string]any{
		"selectedYear":   year,
		"availableYears": vm.AvailableYears,
		"overview":       vm.Overall,
		"monthlyData":    vm.MonthlyTrends,
		"yearlyData":     vm.YearlyRollups,
		"categoryData":   vm.CategoryPerformance,
		"paymentData":    vm.PaymentMethods,
		"sellerStates":   vm.SellerStates,
		"mapData":        h.mapFeatures(vm),
	})
	flush(w)
}
