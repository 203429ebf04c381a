package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bharath-k9/Analytics-dashboard/internal/config"
	"github.com/bharath-k9/Analytics-dashboard/internal/errors"
	"github.com/bharath-k9/Analytics-dashboard/internal/format"
	"github.com/bharath-k9/Analytics-dashboard/internal/geo"
	"github.com/bharath-k9/Analytics-dashboard/internal/models"
	"github.com/bharath-k9/Analytics-dashboard/internal/observability"
	"github.com/bharath-k9/Analytics-dashboard/internal/services"
	"github.com/bharath-k9/Analytics-dashboard/internal/states"
)

const (
	cacheControl       = "private, max-age=60"
	defaultProductRows = 20
	version            = "1.0.0"
)

var cacheHeaders = map[string]string{"Cache-Control": cacheControl}

type APIHandlers struct {
	analytics *services.Analytics
	views     viewSource
	regions   []geo.Region
	display   config.DisplayConfig
	formatter *format.Formatter
	logger    *slog.Logger
}

func NewAPIHandlers(
	analytics *services.Analytics,
	regions []geo.Region,
	display config.DisplayConfig,
	formatter *format.Formatter,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		views:     viewSource{analytics: analytics, defaultYear: display.DefaultYear},
		regions:   regions,
		display:   display,
		formatter: formatter,
		logger:    logger,
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, r, h.logger, err)
}

// view writes the error response itself and reports false when the request
// cannot be served.
func (h *APIHandlers) view(w http.ResponseWriter, r *http.Request) (models.ViewModel, string, bool) {
	vm, sel, err := h.views.resolve(r.URL.Query().Get("year"))
	if err != nil {
		h.fail(w, r, err)
		return models.ViewModel{}, "", false
	}
	return vm, sel.String(), true
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}

// HandleReload starts a fresh load in the background and returns its id.
func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	load := h.analytics.Start(context.WithoutCancel(r.Context()))

	select {
	case <-load.Done():
		if err := load.Wait(); err == services.ErrClosed {
			h.fail(w, r, errors.ServiceUnavailable("Service is shutting down"))
			return
		}
	default:
	}

	h.logger.Info("reload requested",
		"load_id", load.ID,
		"request_id", observability.GetRequestID(r.Context()),
	)
	errors.WriteSuccess(w, map[string]string{"load_id": load.ID})
}

type statusResponse struct {
	Ready    bool      `json:"ready"`
	Loading  bool      `json:"loading"`
	LoadID   string    `json:"load_id,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
	Error    string    `json:"error,omitempty"`
	Sources  any       `json:"sources"`
}

func (h *APIHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.analytics.Snapshot()
	resp := statusResponse{
		Ready:    snap.Ready(),
		Loading:  snap.Loading,
		LoadID:   snap.LoadID,
		LoadedAt: snap.LoadedAt,
		Sources:  snap.Sources,
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	errors.WriteSuccess(w, resp)
}

func (h *APIHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	vm, year, ok := h.view(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"selected_year": year,
		"view":          vm,
	}, cacheHeaders)
}

// FormattedSummary is the overview rendered for display.
type FormattedSummary struct {
	TotalRevenue   string `json:"total_revenue"`
	TotalOrders    string `json:"total_orders"`
	TotalCustomers string `json:"total_customers"`
	AvgOrderValue  string `json:"avg_order_value"`
}

func formatSummary(f *format.Formatter, s models.OverallSummary) FormattedSummary {
	return FormattedSummary{
		TotalRevenue:   f.Currency(s.TotalRevenue),
		TotalOrders:    f.Compact(float64(s.TotalOrders)),
		TotalCustomers: f.Compact(float64(s.TotalCustomers)),
		AvgOrderValue:  f.Fixed(s.AvgOrderValue),
	}
}

func (h *APIHandlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	vm, year, ok := h.view(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"selected_year": year,
		"summary":       vm.Overall,
		"formatted":     formatSummary(h.formatter, vm.Overall),
	}, cacheHeaders)
}

func (h *APIHandlers) HandleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	vm, _, ok := h.view(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, vm.MonthlyTrends, cacheHeaders)
}

func (h *APIHandlers) HandleYearly(w http.ResponseWriter, r *http.Request) {
	vm, _, ok := h.view(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, vm.YearlyRollups, cacheHeaders)
}

func (h *APIHandlers) HandleYears(w http.ResponseWriter, r *http.Request) {
	vm, year, ok := h.view(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"selected_year": year,
		"years":         vm.AvailableYears,
	}, cacheHeaders)
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	vm, _, ok := h.view(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, vm.CategoryPerformance, cacheHeaders)
}

func (h *APIHandlers) HandlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	vm, _, ok := h.view(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, vm.PaymentMethods, cacheHeaders)
}

func (h *APIHandlers) HandleCustomersByState(w http.ResponseWriter, r *http.Request) {
	vm, _, ok := h.view(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, vm.CustomersByState, cacheHeaders)
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	limit := defaultProductRows
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.fail(w, r, errors.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	vm, _, ok := h.view(w, r)
	if !ok {
		return
	}
	products := vm.TopProducts
	if len(products) > limit {
		products = products[:limit]
	}
	errors.WriteSuccessWithHeaders(w, products, cacheHeaders)
}

func (h *APIHandlers) HandleStates(w http.ResponseWriter, r *http.Request) {
	vm, _, ok := h.view(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, vm.StateAnalysis, cacheHeaders)
}

func (h *APIHandlers) HandleState(w http.ResponseWriter, r *http.Request) {
	vm, _, ok := h.view(w, r)
	if !ok {
		return
	}
	code := r.PathValue("code")
	state, found := states.Find(vm.StateAnalysis, code)
	if !found {
		h.fail(w, r, errors.NotFound("No data for state "+code))
		return
	}
	errors.WriteSuccessWithHeaders(w, state, cacheHeaders)
}

func (h *APIHandlers) HandleSellers(w http.ResponseWriter, r *http.Request) {
	vm, _, ok := h.view(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"sellers":  vm.SellerPerformance,
		"by_state": vm.SellerStates,
	}, cacheHeaders)
}

func mapOptions(display config.DisplayConfig) geo.Options {
	return geo.Options{
		LabelThreshold: display.LabelThreshold,
		ShowAllLabels:  display.ShowAllLabels,
		ShowTopProduct: display.ShowTopProductName,
	}
}

// HandleMap returns the choropleth as a GeoJSON feature collection.
func (h *APIHandlers) HandleMap(w http.ResponseWriter, r *http.Request) {
	vm, _, ok := h.view(w, r)
	if !ok {
		return
	}
	features := geo.Annotate(h.regions, vm.StateAnalysis, mapOptions(h.display))
	errors.WriteSuccessWithHeaders(w, geo.Collection(features), cacheHeaders)
}
