package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRESTQuerier_Query(t *testing.T) {
	var gotPath, gotSelect, gotLimit, gotKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSelect = r.URL.Query().Get("select")
		gotLimit = r.URL.Query().Get("limit")
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"product_id":"p1","revenue":12345678901234.5}]`))
	}))
	defer srv.Close()

	q := NewRESTQuerier(srv.URL, "anon-key")
	rows, err := q.Query(context.Background(), Resource{Name: TopProducts, Limit: 500})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if gotPath != "/rest/v1/top_products" {
		t.Errorf("path = %q", gotPath)
	}
	if gotLimit != "500" || gotSelect != "*" {
		t.Errorf("select = %q, limit = %q", gotSelect, gotLimit)
	}
	if gotKey != "anon-key" || gotAuth != "Bearer anon-key" {
		t.Errorf("auth headers = %q, %q", gotKey, gotAuth)
	}

	if len(rows) != 1 {
		t.Fatalf("rows = %v", rows)
	}
	if n, ok := rows[0]["revenue"].(json.Number); !ok || n.String() != "12345678901234.5" {
		t.Errorf("revenue = %#v, want json.Number", rows[0]["revenue"])
	}
}

func TestRESTQuerier_Absent(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"code":"42P01","message":"relation \"public.seller_performance\" does not exist"}`},
		{"missing relation", http.StatusBadRequest, `{"code":"PGRST205","message":"Could not find the table"}`},
		{"undefined table", http.StatusBadRequest, `{"code":"42P01","message":"relation does not exist"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewRESTQuerier(srv.URL, "").Query(context.Background(), Resource{Name: SellerPerformance})
			if !errors.Is(err, ErrAbsent) {
				t.Errorf("error = %v, want ErrAbsent", err)
			}
		})
	}
}

func TestRESTQuerier_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"XX000","message":"statement timeout"}`))
	}))
	defer srv.Close()

	_, err := NewRESTQuerier(srv.URL, "").Query(context.Background(), Resource{Name: CategorySales})
	if err == nil || errors.Is(err, ErrAbsent) {
		t.Fatalf("error = %v, want failure", err)
	}
	if !strings.Contains(err.Error(), "statement timeout") {
		t.Errorf("error = %v, want backend message", err)
	}
}

func TestRESTQuerier_NoLimit(t *testing.T) {
	var hasLimit bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasLimit = r.URL.Query()["limit"]
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	rows, err := NewRESTQuerier(srv.URL, "").Query(context.Background(), Resource{Name: MonthlyRevenue})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if hasLimit {
		t.Error("unbounded resource sent a limit")
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v", rows)
	}
}

func TestRESTQuerier_InvalidBaseURL(t *testing.T) {
	_, err := NewRESTQuerier("://bad", "").Query(context.Background(), Resource{Name: CategorySales})
	if err == nil || errors.Is(err, ErrAbsent) {
		t.Errorf("error = %v, want failure", err)
	}
}

func TestRESTQuerier_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	if _, err := NewRESTQuerier(srv.URL, "").Query(context.Background(), Resource{Name: CategorySales}); err == nil {
		t.Error("expected decode error")
	}
}
