package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"retail-dashboard/internal/loader"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/server"
	"retail-dashboard/internal/services"
)

func newTestEngine() *services.Engine {
	e := services.NewEngine(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	e.SetDataset(&models.Dataset{
		Transactions: []models.Transaction{
			{
				InvoiceNo:   "536365",
				StockCode:   "85123A",
				Description: "WHITE HANGING HEART T-LIGHT HOLDER",
				Quantity:    6,
				InvoiceDate: time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC),
				UnitPrice:   2.55,
				CustomerID:  "17850",
				Country:     "United Kingdom",
			},
			{
				InvoiceNo:   "536367",
				StockCode:   "84879",
				Description: "ASSORTED COLOUR BIRD ORNAMENT",
				Quantity:    32,
				InvoiceDate: time.Date(2010, 12, 1, 8, 34, 0, 0, time.UTC),
				UnitPrice:   1.69,
				CustomerID:  "13047",
				Country:     "United Kingdom",
			},
			{
				InvoiceNo:   "536370",
				StockCode:   "22728",
				Description: "ALARM CLOCK BAKELIKE PINK",
				Quantity:    24,
				InvoiceDate: time.Date(2010, 12, 1, 8, 45, 0, 0, time.UTC),
				UnitPrice:   3.75,
				CustomerID:  "12583",
				Country:     "France",
			},
		},
	})
	return e
}

func newTestServer() *server.Server {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	templateHandlers := &server.TemplateHandlers{Dashboard: handleDashboard}
	return server.NewServer(newTestEngine(), logger, templateHandlers)
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/api/metrics", http.StatusOK, "application/json"},
		{"/api/monthly-sales", http.StatusOK, "application/json"},
		{"/api/country-revenue", http.StatusOK, "application/json"},
		{"/api/top-products", http.StatusOK, "application/json"},
		{"/api/hourly-orders", http.StatusOK, "application/json"},
		{"/api/order-distribution", http.StatusOK, "application/json"},
		{"/api/countries", http.StatusOK, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			ct := w.Header().Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

func TestServer_MetricsResponse(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/metrics", nil)
	srv.ServeHTTP(w, r)

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	data, ok := response["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected metrics object in response")
	}

	// 6*2.55 + 32*1.69 + 24*3.75 = 159.38 across three invoices
	if revenue, _ := data["total_revenue"].(float64); revenue < 159.37 || revenue > 159.39 {
		t.Errorf("total_revenue = %v, want ~159.38", revenue)
	}
	if orders, _ := data["order_count"].(float64); orders != 3 {
		t.Errorf("order_count = %v, want 3", orders)
	}
}

func TestServer_FilteredRequest(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/metrics?country=France&from=2010-12-01&to=2010-12-31", nil)
	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	data := response["data"].(map[string]interface{})

	if orders, _ := data["order_count"].(float64); orders != 1 {
		t.Errorf("order_count = %v, want 1 for France", orders)
	}
	if revenue, _ := data["total_revenue"].(float64); revenue != 90.0 {
		t.Errorf("total_revenue = %v, want 90 for France", revenue)
	}
}

func TestServer_InvalidFilter(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/metrics?from=bogus", nil)
	srv.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// Test Server-Sent Events routes
func TestServer_SSERoutes(t *testing.T) {
	srv := newTestServer()

	sseRoutes := []string{
		"/sse/metrics",
		"/sse/monthly-sales",
		"/sse/country-revenue",
		"/sse/top-products",
		"/sse/hourly-orders",
		"/sse/order-distribution",
		"/sse/refresh-all",
	}

	for _, route := range sseRoutes {
		t.Run(route, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", route, nil)

			srv.ServeHTTP(w, r)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}

			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("content-type = %q, should contain 'text/event-stream'", ct)
			}

			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("cache-control = %q, want 'no-cache'", cc)
			}
		})
	}
}

func TestServer_HandleHealth(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode health JSON: %v", err)
	}

	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	healthData, ok := response["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected health data in response")
	}

	if status, ok := healthData["status"].(string); !ok || status != "healthy" {
		t.Errorf("health status = %v, want 'healthy'", healthData["status"])
	}

	if _, ok := healthData["timestamp"]; !ok {
		t.Error("health response should include timestamp")
	}
}

// Test error handling for invalid methods
func TestServer_ErrorHandling(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"POST", "/api/metrics", http.StatusMethodNotAllowed},
		{"PUT", "/", http.StatusMethodNotAllowed},
		{"DELETE", "/health", http.StatusMethodNotAllowed},
		{"PATCH", "/api/top-products", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

// Test dashboard template rendering
// End to end: CSV on disk through the loader into the engine. An invoice
// whose only line is a negative-quantity return contributes nothing, so
// the remaining invoice alone determines every metric.
func TestLoadThroughReport(t *testing.T) {
	csv := `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
1,85123A,WHITE HANGING HEART,2,12/1/2010 8:26,5.00,17850,United Kingdom
1,71053,WHITE METAL LANTERN,1,12/1/2010 8:26,3.00,17850,United Kingdom
2,85123A,WHITE HANGING HEART,-1,12/2/2010 9:00,5.00,12583,France`

	path := filepath.Join(t.TempDir(), "retail.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	ds, err := loader.New(logger, t.TempDir()).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	engine := services.NewEngine(logger)
	engine.SetDataset(ds)

	m := engine.Report(services.Filter{}).Metrics
	if m.TotalRevenue != 13.0 {
		t.Errorf("TotalRevenue = %v, want 13.0", m.TotalRevenue)
	}
	if m.OrderCount != 1 {
		t.Errorf("OrderCount = %d, want 1", m.OrderCount)
	}
	if m.AvgOrderValue != 13.0 {
		t.Errorf("AvgOrderValue = %v, want 13.0", m.AvgOrderValue)
	}
}

func TestDashboardTemplate(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	handleDashboard(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Retail Analytics Dashboard") {
		t.Error("dashboard should contain title")
	}

	expectedComponents := []string{
		"Key Performance Indicators",
		"Sales Trends Over Time",
		"Geographic Analysis",
		"Product Performance",
		"Purchase Patterns",
		"kpi-content",
		"country-content",
		"/sse/refresh-all",
	}

	for _, component := range expectedComponents {
		if !strings.Contains(body, component) {
			t.Errorf("dashboard should contain '%s'", component)
		}
	}
}
