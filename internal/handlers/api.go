package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/services"
)

const (
	defaultTopProducts = 10
	maxTopProducts     = 50
)

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	engine *services.Engine
	logger *slog.Logger
}

func NewAPIHandlers(engine *services.Engine, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		engine: engine,
		logger: logger,
	}
}

func (h *APIHandlers) report(w http.ResponseWriter, r *http.Request) (*services.Report, bool) {
	filter, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return nil, false
	}
	return h.engine.Report(filter), true
}

func (h *APIHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, report.Metrics, cacheHeaders)
}

func (h *APIHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, report.MonthlySales, cacheHeaders)
}

func (h *APIHandlers) HandleCountryRevenue(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, report.CountryRevenue, cacheHeaders)
}

// HandleTopProducts serves the product rankings. The "by" parameter picks
// the measure (quantity or revenue, default quantity); "limit" caps the
// result.
func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	by := r.URL.Query().Get("by")
	switch by {
	case "", "quantity", "revenue":
	default:
		errors.WriteError(w, h.logger, errors.Validation("'by' must be 'quantity' or 'revenue'"), requestID)
		return
	}

	limit := defaultTopProducts
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errors.WriteError(w, h.logger, errors.Validation("'limit' must be a positive integer"), requestID)
			return
		}
		limit = min(n, maxTopProducts)
	}

	report, ok := h.report(w, r)
	if !ok {
		return
	}

	products := report.ProductsByQty
	if by == "revenue" {
		products = report.ProductsByRevenue
	}

	errors.WriteSuccessWithHeaders(w, services.TopN(products, limit), cacheHeaders)
}

func (h *APIHandlers) HandleHourlyOrders(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, report.HourlyOrders, cacheHeaders)
}

func (h *APIHandlers) HandleOrderDistribution(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, report.OrderSizes, cacheHeaders)
}

func (h *APIHandlers) HandleCountries(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.engine.Countries(), cacheHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.Stats()
	stats["dataset"] = h.engine.Info()

	errors.WriteSuccess(w, stats)
}
