package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"retail-dashboard/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewSSEHandlers(t *testing.T) {
	engine := createTestEngine()
	logger := quietLogger()

	handlers := NewSSEHandlers(engine, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.engine != engine {
		t.Error("NewSSEHandlers() should set engine field")
	}
	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_renderKPICards(t *testing.T) {
	handlers := NewSSEHandlers(createTestEngine(), quietLogger())

	html, err := handlers.renderKPICards(models.Metrics{
		TotalRevenue:  23.0,
		OrderCount:    2,
		CustomerCount: 2,
		AvgOrderValue: 11.5,
	})
	if err != nil {
		t.Fatalf("renderKPICards() failed: %v", err)
	}

	expectedContent := []string{
		`id="kpi-content"`,
		"Total Revenue",
		"$23",
		"Total Orders",
		">2<",
		"Avg Order Value",
		"$11.50",
	}
	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected KPI HTML to contain %q", content)
		}
	}
}

func TestSSEHandlers_renderCountryTable(t *testing.T) {
	handlers := NewSSEHandlers(createTestEngine(), quietLogger())

	testData := []models.CountryRevenue{
		{Country: "United Kingdom", Revenue: 13.0, Orders: 1},
		{Country: "France", Revenue: 10.0, Orders: 1},
	}

	html, err := handlers.renderCountryTable(testData)
	if err != nil {
		t.Fatalf("renderCountryTable() failed: %v", err)
	}

	expectedContent := []string{
		`<table class="modern-table">`,
		"<th>Country</th>",
		"<th>Revenue</th>",
		"<th>Orders</th>",
		"United Kingdom",
		"$13.00",
		"France",
		"$10.00",
	}
	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}
}

func TestSSEHandlers_renderCountryTable_LargeDataset(t *testing.T) {
	handlers := NewSSEHandlers(createTestEngine(), quietLogger())

	testData := make([]models.CountryRevenue, 75)
	for i := 0; i < 75; i++ {
		testData[i] = models.CountryRevenue{
			Country: "Country" + string(rune('A'+i%26)),
			Revenue: float64(i * 10),
			Orders:  i,
		}
	}

	html, err := handlers.renderCountryTable(testData)
	if err != nil {
		t.Fatalf("renderCountryTable() failed: %v", err)
	}

	rowCount := strings.Count(html, "<tr>") - 1 // header row
	if rowCount > maxTableRows {
		t.Errorf("expected max %d rows, got %d", maxTableRows, rowCount)
	}
}

func checkSSEResponse(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("expected cache-control 'no-cache', got %q", cc)
	}
	if w.Body.Len() == 0 {
		t.Error("expected non-empty SSE body")
	}
}

func TestSSEHandlers_HandleMetrics(t *testing.T) {
	handlers := NewSSEHandlers(createTestEngine(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/metrics", nil)
	w := httptest.NewRecorder()

	handlers.HandleMetrics(w, req)

	checkSSEResponse(t, w)

	body := w.Body.String()
	if !strings.Contains(body, "kpi-content") {
		t.Error("expected SSE stream to patch the KPI section")
	}
	if !strings.Contains(body, "Total Revenue") {
		t.Error("expected SSE stream to carry KPI labels")
	}
}

func TestSSEHandlers_HandleMetricsFiltered(t *testing.T) {
	handlers := NewSSEHandlers(createTestEngine(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/metrics?country=France", nil)
	w := httptest.NewRecorder()

	handlers.HandleMetrics(w, req)

	checkSSEResponse(t, w)

	// France alone is one order worth 10.0.
	body := w.Body.String()
	if !strings.Contains(body, "$10") {
		t.Errorf("expected filtered revenue in stream, got: %s", body)
	}
}

func TestSSEHandlers_InvalidFilterFallsBack(t *testing.T) {
	handlers := NewSSEHandlers(createTestEngine(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/metrics?from=not-a-date", nil)
	w := httptest.NewRecorder()

	handlers.HandleMetrics(w, req)

	// Widgets degrade to the unfiltered view instead of erroring.
	checkSSEResponse(t, w)
	if !strings.Contains(w.Body.String(), "$23") {
		t.Error("expected unfiltered metrics when the filter is invalid")
	}
}

func TestSSEHandlers_HandleCountryRevenue(t *testing.T) {
	handlers := NewSSEHandlers(createTestEngine(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/country-revenue", nil)
	w := httptest.NewRecorder()

	handlers.HandleCountryRevenue(w, req)

	checkSSEResponse(t, w)

	body := w.Body.String()
	if !strings.Contains(body, "country-content") {
		t.Error("expected SSE stream to patch the country table")
	}
	if !strings.Contains(body, "countryData") {
		t.Error("expected SSE stream to publish the countryData signal")
	}
}

func TestSSEHandlers_SignalEndpoints(t *testing.T) {
	handlers := NewSSEHandlers(createTestEngine(), quietLogger())

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		path       string
		wantSignal string
	}{
		{"monthly-sales", handlers.HandleMonthlySales, "/sse/monthly-sales", "monthlyData"},
		{"top-products", handlers.HandleTopProducts, "/sse/top-products", "productsByQty"},
		{"hourly-orders", handlers.HandleHourlyOrders, "/sse/hourly-orders", "hourlyData"},
		{"order-distribution", handlers.HandleOrderDistribution, "/sse/order-distribution", "orderSizeData"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			tt.handler(w, req)

			checkSSEResponse(t, w)

			if !strings.Contains(w.Body.String(), tt.wantSignal) {
				t.Errorf("expected SSE stream to publish the %s signal", tt.wantSignal)
			}
		})
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	handlers := NewSSEHandlers(createTestEngine(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all", nil)
	w := httptest.NewRecorder()

	handlers.HandleRefreshAll(w, req)

	checkSSEResponse(t, w)

	body := w.Body.String()
	expected := []string{
		"kpi-content",
		"country-content",
		"monthlyData",
		"productsByQty",
		"productsByRevenue",
		"hourlyData",
		"orderSizeData",
	}
	for _, want := range expected {
		if !strings.Contains(body, want) {
			t.Errorf("refresh-all stream should contain %q", want)
		}
	}
}
