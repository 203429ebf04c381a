package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/bharath-k9/Analytics-dashboard/internal/config"
	"github.com/bharath-k9/Analytics-dashboard/internal/format"
	"github.com/bharath-k9/Analytics-dashboard/internal/geo"
	"github.com/bharath-k9/Analytics-dashboard/internal/models"
	"github.com/bharath-k9/Analytics-dashboard/internal/services"
	"github.com/bharath-k9/Analytics-dashboard/internal/source"
)

type staticFetcher source.Results

func (f staticFetcher) FetchAll(context.Context) source.Results {
	return source.Results(f)
}

func ok(rows ...source.Row) source.Result {
	return source.Result{Status: source.StatusSuccess, Rows: rows}
}

func testResults() source.Results {
	return source.Results{
		source.MonthlyRevenue: ok(
			source.Row{"month": "2023-01", "revenue": 1000, "orders": 10},
			source.Row{"month": "2023-02", "revenue": 2000, "orders": 10},
			source.Row{"month": "2023-07", "revenue": 500, "orders": 5},
			source.Row{"month": "2022-12", "revenue": 100, "orders": 1},
		),
		source.CategorySales:  ok(source.Row{"category": "toys", "revenue": 100, "items_sold": 4}),
		source.PaymentMethods: {Status: source.StatusFailure, Rows: []source.Row{}},
		source.CustomersByState: ok(
			source.Row{"state": "SP", "customers": 4000, "revenue": 3000},
			source.Row{"state": "RJ", "customers": 10, "revenue": 600},
		),
		source.TopProducts: ok(
			source.Row{"product_id": "p1", "revenue": 300},
			source.Row{"product_id": "p2", "revenue": 200},
			source.Row{"product_id": "p3", "revenue": 100},
		),
		source.TopProductPerState: ok(source.Row{"state": "SP", "product_id": "lamp", "product_display_name": "Desk <Lamp>", "revenue": 90}),
		source.TopProductsByState: ok(source.Row{"state": "SP", "product_id": "lamp", "revenue": 90}),
		source.SellerPerformance:  ok(source.Row{"seller_id": "s1", "seller_state": "SP", "total_revenue": 10}),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testDisplay() config.DisplayConfig {
	return config.DisplayConfig{
		DefaultYear:        "all",
		LabelThreshold:     1000,
		ShowTopProductName: true,
		Currency:           "USD",
		Locale:             "en-US",
	}
}

func testRegions() []geo.Region {
	square := func(x float64) orb.Polygon {
		return orb.Polygon{{{x, 0}, {x + 2, 0}, {x + 2, 2}, {x, 2}, {x, 0}}}
	}
	return []geo.Region{
		{Code: "SP", Name: "São Paulo", Geometry: square(0)},
		{Code: "RJ", Name: "Rio de Janeiro", Geometry: square(10)},
	}
}

func testFormatter(t *testing.T) *format.Formatter {
	t.Helper()
	f, err := format.New("USD", "en-US")
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func createTestAnalytics(t *testing.T) *services.Analytics {
	t.Helper()
	a := services.NewAnalytics(staticFetcher(testResults()), services.Options{}, testLogger())
	if err := a.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func newTestAPI(t *testing.T, a *services.Analytics) *APIHandlers {
	t.Helper()
	return NewAPIHandlers(a, testRegions(), testDisplay(), testFormatter(t), testLogger())
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func serve(t *testing.T, handler http.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, env
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	h := newTestAPI(t, createTestAnalytics(t))
	w, env := serve(t, h.HandleHealth, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(string(env.Data), `"healthy"`) {
		t.Errorf("data = %s", env.Data)
	}
}

func TestAPIHandlers_HandleOverview(t *testing.T) {
	h := newTestAPI(t, createTestAnalytics(t))

	tests := []struct {
		name       string
		url        string
		wantOrders int64
		wantAvg    float64
	}{
		{"all", "/api/overview", 26, 3600.0 / 26},
		{"explicit all", "/api/overview?year=ALL", 26, 3600.0 / 26},
		{"year", "/api/overview?year=2023", 25, 140},
		{"empty year", "/api/overview?year=2019", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := serve(t, h.HandleOverview, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			if w.Header().Get("Cache-Control") != cacheControl {
				t.Errorf("Cache-Control = %q", w.Header().Get("Cache-Control"))
			}

			var data struct {
				Summary   models.OverallSummary `json:"summary"`
				Formatted FormattedSummary      `json:"formatted"`
			}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatal(err)
			}
			if data.Summary.TotalOrders != tt.wantOrders || math.Abs(data.Summary.AvgOrderValue-tt.wantAvg) > 1e-9 {
				t.Errorf("summary = %+v", data.Summary)
			}
			if data.Summary.TotalCustomers != 4010 {
				t.Errorf("customers = %d, want 4010 regardless of year", data.Summary.TotalCustomers)
			}
		})
	}
}

func TestAPIHandlers_HandleOverview_Formatted(t *testing.T) {
	h := newTestAPI(t, createTestAnalytics(t))
	_, env := serve(t, h.HandleOverview, httptest.NewRequest(http.MethodGet, "/api/overview?year=2023", nil))

	var data struct {
		Formatted FormattedSummary `json:"formatted"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	want := FormattedSummary{TotalRevenue: "$3.5K", TotalOrders: "25", TotalCustomers: "4.01K", AvgOrderValue: "$140.00"}
	if data.Formatted != want {
		t.Errorf("formatted = %+v, want %+v", data.Formatted, want)
	}
}

func TestAPIHandlers_InvalidYear(t *testing.T) {
	h := newTestAPI(t, createTestAnalytics(t))
	w, env := serve(t, h.HandleMonthlyTrends, httptest.NewRequest(http.MethodGet, "/api/monthly-trends?year=20x3", nil))

	if w.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestAPIHandlers_NotReady(t *testing.T) {
	a := services.NewAnalytics(staticFetcher(testResults()), services.Options{}, testLogger())
	h := newTestAPI(t, a)

	w, env := serve(t, h.HandleStates, httptest.NewRequest(http.MethodGet, "/api/states", nil))
	if w.Code != http.StatusServiceUnavailable || env.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestAPIHandlers_LoadFailed(t *testing.T) {
	a := services.NewAnalytics(staticFetcher(testResults()), services.Options{
		Build: func(source.Results) models.ViewModel { panic("bad data") },
	}, testLogger())
	_ = a.Load(context.Background())
	t.Cleanup(a.Close)
	h := newTestAPI(t, a)

	w, env := serve(t, h.HandleView, httptest.NewRequest(http.MethodGet, "/api/view", nil))
	if w.Code != http.StatusInternalServerError || env.Error.Code != "LOAD_FAILED" {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}

	_, status := serve(t, h.HandleStatus, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if !strings.Contains(string(status.Data), "load failed") {
		t.Errorf("status data = %s", status.Data)
	}
}

func TestAPIHandlers_HandlePaymentMethods_FailedSource(t *testing.T) {
	h := newTestAPI(t, createTestAnalytics(t))
	w, env := serve(t, h.HandlePaymentMethods, httptest.NewRequest(http.MethodGet, "/api/payment-methods", nil))

	if w.Code != http.StatusOK || string(env.Data) != "[]" {
		t.Errorf("status = %d, data = %s", w.Code, env.Data)
	}
}

func TestAPIHandlers_HandleTopProducts(t *testing.T) {
	h := newTestAPI(t, createTestAnalytics(t))

	_, env := serve(t, h.HandleTopProducts, httptest.NewRequest(http.MethodGet, "/api/top-products?limit=2", nil))
	var products []models.ProductSummary
	if err := json.Unmarshal(env.Data, &products); err != nil {
		t.Fatal(err)
	}
	if len(products) != 2 || products[0].ProductID != "p1" {
		t.Errorf("products = %+v", products)
	}

	w, _ := serve(t, h.HandleTopProducts, httptest.NewRequest(http.MethodGet, "/api/top-products?limit=0", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d", w.Code)
	}
}

func TestAPIHandlers_HandleState(t *testing.T) {
	h := newTestAPI(t, createTestAnalytics(t))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/states/{code}", h.HandleState)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/states/sp", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var env struct {
		Data models.StateAnalysis `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.State != "SP" || env.Data.TopProduct == nil || len(env.Data.AllProducts) != 1 {
		t.Errorf("state = %+v", env.Data)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/states/ZZ", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown state status = %d", w.Code)
	}
}

func TestAPIHandlers_HandleYears(t *testing.T) {
	h := newTestAPI(t, createTestAnalytics(t))
	_, env := serve(t, h.HandleYears, httptest.NewRequest(http.MethodGet, "/api/years?year=2022", nil))

	var data struct {
		Selected string `json:"selected_year"`
		Years    []int  `json:"years"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Selected != "2022" || len(data.Years) != 2 || data.Years[0] != 2023 {
		t.Errorf("years = %+v", data)
	}
}

func TestAPIHandlers_HandleMap(t *testing.T) {
	h := newTestAPI(t, createTestAnalytics(t))
	w, env := serve(t, h.HandleMap, httptest.NewRequest(http.MethodGet, "/api/map", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(env.Data, &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Fatalf("collection = %+v", fc)
	}
	sp := fc.Features[0].Properties
	if sp["code"] != "SP" || sp["show_label"] != true || sp["top_product"] != "Desk <Lamp>" {
		t.Errorf("SP properties = %v", sp)
	}
	if fc.Features[1].Properties["show_label"] != false {
		t.Errorf("RJ below threshold should not be labelled: %v", fc.Features[1].Properties)
	}
}

func TestAPIHandlers_HandleReload(t *testing.T) {
	a := createTestAnalytics(t)
	h := newTestAPI(t, a)

	w, env := serve(t, h.HandleReload, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data["load_id"]) != 36 {
		t.Errorf("load id = %q", data["load_id"])
	}

	a.Close()
	w, _ = serve(t, h.HandleReload, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("reload after close status = %d", w.Code)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	h := newTestAPI(t, createTestAnalytics(t))
	w, env := serve(t, h.HandleStats, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	for _, key := range []string{"load_id", "loads_started", "sources"} {
		if !strings.Contains(string(env.Data), `"`+key+`"`) {
			t.Errorf("stats missing %s: %s", key, env.Data)
		}
	}
}
