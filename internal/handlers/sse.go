package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/services"
	"github.com/starfederation/datastar-go/datastar"
)

const maxTableRows = 50

var kpiTemplate = template.Must(template.New("kpiCards").Parse(`
<div id="kpi-content" class="kpi-grid">
<div class="metric-card"><span class="metric-label">Total Revenue</span><strong>${{printf "%.0f" .TotalRevenue}}</strong></div>
<div class="metric-card"><span class="metric-label">Total Orders</span><strong>{{.OrderCount}}</strong></div>
<div class="metric-card"><span class="metric-label">Unique Customers</span><strong>{{.CustomerCount}}</strong></div>
<div class="metric-card"><span class="metric-label">Avg Order Value</span><strong>${{printf "%.2f" .AvgOrderValue}}</strong></div>
</div>`))

var countryTableTemplate = template.Must(template.New("countryTable").Parse(`
<div id="country-content">
<table class="modern-table">
<thead><tr><th>Country</th><th>Revenue</th><th>Orders</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.Country}}</td>
<td><strong>${{printf "%.2f" .Revenue}}</strong></td>
<td>{{.Orders}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	engine *services.Engine
	logger *slog.Logger
}

func NewSSEHandlers(engine *services.Engine, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		engine: engine,
		logger: logger,
	}
}

// filtered resolves the report for the request, falling back to the
// unfiltered report when the query carries bad filter values. SSE widgets
// degrade rather than error.
func (h *SSEHandlers) filtered(r *http.Request) *services.Report {
	filter, err := parseFilter(r)
	if err != nil {
		h.logger.Warn("ignoring invalid filter on sse request", "error", err, "url", r.URL.String())
		filter = services.Filter{}
	}
	return h.engine.Report(filter)
}

func (h *SSEHandlers) renderKPICards(m models.Metrics) (string, error) {
	var buf strings.Builder
	err := kpiTemplate.Execute(&buf, m)
	return buf.String(), err
}

func (h *SSEHandlers) renderCountryTable(data []models.CountryRevenue) (string, error) {
	if len(data) > maxTableRows {
		data = data[:maxTableRows]
	}

	var buf strings.Builder
	err := countryTableTemplate.Execute(&buf, data)
	return buf.String(), err
}

func (h *SSEHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	html, err := h.renderKPICards(h.filtered(r).Metrics)
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}

	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleCountryRevenue(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	report := h.filtered(r)
	html, err := h.renderCountryTable(report.CountryRevenue)
	if err != nil {
		h.logger.Error("render country table", "error", err)
		return
	}

	sse.PatchElements(html)

	jsonData, err := json.Marshal(map[string]any{
		"countryData": report.CountryRevenue,
	})
	if err != nil {
		h.logger.Error("marshal country data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	data := h.filtered(r).MonthlySales
	jsonData, err := json.Marshal(map[string]any{
		"monthlyData": data,
	})
	if err != nil {
		h.logger.Error("marshal monthly data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	report := h.filtered(r)
	jsonData, err := json.Marshal(map[string]any{
		"productsByQty":     services.TopN(report.ProductsByQty, defaultTopProducts),
		"productsByRevenue": services.TopN(report.ProductsByRevenue, defaultTopProducts),
	})
	if err != nil {
		h.logger.Error("marshal products data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleHourlyOrders(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	data := h.filtered(r).HourlyOrders
	jsonData, err := json.Marshal(map[string]any{
		"hourlyData": data,
	})
	if err != nil {
		h.logger.Error("marshal hourly data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleOrderDistribution(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	data := h.filtered(r).OrderSizes
	jsonData, err := json.Marshal(map[string]any{
		"orderSizeData": data,
	})
	if err != nil {
		h.logger.Error("marshal order distribution", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleRefreshAll re-renders every widget in one stream; the dashboard
// calls it on load and whenever a filter changes.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	report := h.filtered(r)

	kpiHTML, err := h.renderKPICards(report.Metrics)
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}
	sse.PatchElements(kpiHTML)

	countryHTML, err := h.renderCountryTable(report.CountryRevenue)
	if err != nil {
		h.logger.Error("render country table", "error", err)
		return
	}
	sse.PatchElements(countryHTML)

	allSignals, err := json.Marshal(map[string]any{
		"monthlyData":       report.MonthlySales,
		"countryData":       report.CountryRevenue,
		"productsByQty":     services.TopN(report.ProductsByQty, defaultTopProducts),
		"productsByRevenue": services.TopN(report.ProductsByRevenue, defaultTopProducts),
		"hourlyData":        report.HourlyOrders,
		"orderSizeData":     report.OrderSizes,
	})
	if err != nil {
		h.logger.Error("marshal refresh signals", "error", err)
		return
	}
	sse.PatchSignals(allSignals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
