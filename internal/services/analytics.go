package services

import (
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"retail-dashboard/internal/models"
)

const (
	// maxOrderBuckets caps the customer order-count distribution; customers
	// with more orders than this are outliers and dropped from the chart.
	maxOrderBuckets = 20

	monthLayout = "2006-01"
	dateLayout  = "2006-01-02"
)

// Filter selects a subset of the dataset. The zero value selects
// everything. From and To are inclusive calendar dates; Countries is an
// allow-list matched exactly.
type Filter struct {
	From      time.Time
	To        time.Time
	Countries []string
}

func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() && len(f.Countries) == 0
}

func (f Filter) matches(tx models.Transaction) bool {
	if !f.From.IsZero() || !f.To.IsZero() {
		day := tx.InvoiceDate.Truncate(24 * time.Hour)
		if !f.From.IsZero() && day.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && day.After(f.To) {
			return false
		}
	}
	if len(f.Countries) > 0 && !slices.Contains(f.Countries, tx.Country) {
		return false
	}
	return true
}

// Report is everything the dashboard renders for one filter selection.
type Report struct {
	Metrics           models.Metrics           `json:"metrics"`
	MonthlySales      []models.MonthlySummary  `json:"monthly_sales"`
	CountryRevenue    []models.CountryRevenue  `json:"country_revenue"`
	ProductsByQty     []models.ProductSummary  `json:"products_by_quantity"`
	ProductsByRevenue []models.ProductSummary  `json:"products_by_revenue"`
	HourlyOrders      []models.HourlyOrders    `json:"hourly_orders"`
	OrderSizes        []models.OrderSizeBucket `json:"order_sizes"`
}

// Engine computes dashboard reports over an immutable dataset. Every
// report is a pure function of the dataset and the filter; the dataset is
// installed once after loading and never mutated. The unfiltered report
// backs the default dashboard view and is precomputed.
type Engine struct {
	mu      sync.RWMutex
	dataset *models.Dataset
	full    *Report
	logger  *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		dataset: &models.Dataset{},
		full:    &Report{},
		logger:  logger,
	}
}

// SetDataset installs the loaded dataset and precomputes the unfiltered
// report.
func (e *Engine) SetDataset(ds *models.Dataset) {
	if ds == nil {
		ds = &models.Dataset{}
	}
	full := compute(ds.Transactions)

	e.mu.Lock()
	e.dataset = ds
	e.full = full
	e.mu.Unlock()

	e.logger.Info("dataset installed",
		"records", len(ds.Transactions),
		"orders", full.Metrics.OrderCount,
	)
}

// Report computes the metrics and grouped summaries for the given filter.
// An empty selection yields zero metrics and empty groupings, never an
// error.
func (e *Engine) Report(f Filter) *Report {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if f.IsZero() {
		return e.full
	}

	filtered := make([]models.Transaction, 0, len(e.dataset.Transactions))
	for _, tx := range e.dataset.Transactions {
		if f.matches(tx) {
			filtered = append(filtered, tx)
		}
	}
	return compute(filtered)
}

// Countries lists the distinct countries of the dataset, sorted, for the
// filter controls.
func (e *Engine) Countries() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, tx := range e.dataset.Transactions {
		if tx.Country != "" {
			seen[tx.Country] = struct{}{}
		}
	}
	countries := make([]string, 0, len(seen))
	for c := range seen {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return countries
}

// Info reports dataset-level facts for the sidebar and admin stats.
func (e *Engine) Info() models.DatasetInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	products := make(map[string]struct{})
	countries := make(map[string]struct{})
	var first, last time.Time
	for _, tx := range e.dataset.Transactions {
		products[tx.StockCode] = struct{}{}
		if tx.Country != "" {
			countries[tx.Country] = struct{}{}
		}
		if first.IsZero() || tx.InvoiceDate.Before(first) {
			first = tx.InvoiceDate
		}
		if tx.InvoiceDate.After(last) {
			last = tx.InvoiceDate
		}
	}

	info := models.DatasetInfo{
		Records:     len(e.dataset.Transactions),
		Countries:   len(countries),
		Products:    len(products),
		Orders:      e.full.Metrics.OrderCount,
		RowsRead:    e.dataset.RowsRead,
		RowsInvalid: e.dataset.RowsInvalid,
		RowsReturns: e.dataset.RowsReturns,
		LoadedAt:    e.dataset.LoadedAt,
	}
	if !first.IsZero() {
		info.FirstDate = first.Format(dateLayout)
		info.LastDate = last.Format(dateLayout)
	}
	return info
}

// Stats exposes counters for the admin endpoint.
func (e *Engine) Stats() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return map[string]any{
		"record_count":  len(e.dataset.Transactions),
		"rows_read":     e.dataset.RowsRead,
		"rows_invalid":  e.dataset.RowsInvalid,
		"rows_returns":  e.dataset.RowsReturns,
		"loaded_at":     e.dataset.LoadedAt,
		"source":        e.dataset.SourcePath,
		"total_revenue": e.full.Metrics.TotalRevenue,
		"orders":        e.full.Metrics.OrderCount,
		"customers":     e.full.Metrics.CustomerCount,
	}
}

type monthlyAcc struct {
	revenue  float64
	invoices map[string]struct{}
}

type countryAcc struct {
	revenue  float64
	invoices map[string]struct{}
}

type productAcc struct {
	stockCode   string
	description string
	quantity    int
	revenue     float64
}

// compute makes one pass over the transactions and derives every metric
// and grouping the dashboard needs.
func compute(txs []models.Transaction) *Report {
	var revenue float64
	invoices := make(map[string]struct{})
	customers := make(map[string]struct{})
	months := make(map[string]*monthlyAcc)
	countries := make(map[string]*countryAcc)
	products := make(map[string]*productAcc)
	var hours [24]map[string]struct{}
	customerOrders := make(map[string]map[string]struct{})

	for _, tx := range txs {
		amount := tx.Amount()
		revenue += amount
		invoices[tx.InvoiceNo] = struct{}{}

		month := tx.InvoiceDate.Format(monthLayout)
		macc := months[month]
		if macc == nil {
			macc = &monthlyAcc{invoices: make(map[string]struct{})}
			months[month] = macc
		}
		macc.revenue += amount
		macc.invoices[tx.InvoiceNo] = struct{}{}

		if tx.Country != "" {
			cacc := countries[tx.Country]
			if cacc == nil {
				cacc = &countryAcc{invoices: make(map[string]struct{})}
				countries[tx.Country] = cacc
			}
			cacc.revenue += amount
			cacc.invoices[tx.InvoiceNo] = struct{}{}
		}

		pacc := products[tx.StockCode]
		if pacc == nil {
			pacc = &productAcc{stockCode: tx.StockCode, description: tx.Description}
			products[tx.StockCode] = pacc
		}
		pacc.quantity += tx.Quantity
		pacc.revenue += amount

		hour := tx.InvoiceDate.Hour()
		if hours[hour] == nil {
			hours[hour] = make(map[string]struct{})
		}
		hours[hour][tx.InvoiceNo] = struct{}{}

		if tx.CustomerID != "" {
			customers[tx.CustomerID] = struct{}{}
			orders := customerOrders[tx.CustomerID]
			if orders == nil {
				orders = make(map[string]struct{})
				customerOrders[tx.CustomerID] = orders
			}
			orders[tx.InvoiceNo] = struct{}{}
		}
	}

	metrics := models.Metrics{
		TotalRevenue:  revenue,
		OrderCount:    len(invoices),
		CustomerCount: len(customers),
		RecordCount:   len(txs),
	}
	if metrics.OrderCount > 0 {
		metrics.AvgOrderValue = revenue / float64(metrics.OrderCount)
	}

	return &Report{
		Metrics:           metrics,
		MonthlySales:      sortMonthly(months),
		CountryRevenue:    sortCountries(countries),
		ProductsByQty:     sortProducts(products, byQuantity),
		ProductsByRevenue: sortProducts(products, byRevenue),
		HourlyOrders:      hourlyHistogram(hours),
		OrderSizes:        orderDistribution(customerOrders),
	}
}

// sortMonthly orders the monthly series chronologically; it feeds a trend
// chart, not a ranking.
func sortMonthly(months map[string]*monthlyAcc) []models.MonthlySummary {
	result := make([]models.MonthlySummary, 0, len(months))
	for month, acc := range months {
		result = append(result, models.MonthlySummary{
			Month:   month,
			Revenue: acc.revenue,
			Orders:  len(acc.invoices),
		})
	}
	slices.SortFunc(result, func(a, b models.MonthlySummary) int {
		return strings.Compare(a.Month, b.Month)
	})
	return result
}

func sortCountries(countries map[string]*countryAcc) []models.CountryRevenue {
	result := make([]models.CountryRevenue, 0, len(countries))
	for country, acc := range countries {
		result = append(result, models.CountryRevenue{
			Country: country,
			Revenue: acc.revenue,
			Orders:  len(acc.invoices),
		})
	}
	slices.SortFunc(result, func(a, b models.CountryRevenue) int {
		if a.Revenue != b.Revenue {
			if a.Revenue > b.Revenue {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Country, b.Country)
	})
	return result
}

type productOrder int

const (
	byQuantity productOrder = iota
	byRevenue
)

// sortProducts ranks products descending by the chosen measure, breaking
// ties by stock code ascending so the ordering is deterministic.
func sortProducts(products map[string]*productAcc, order productOrder) []models.ProductSummary {
	result := make([]models.ProductSummary, 0, len(products))
	for _, acc := range products {
		result = append(result, models.ProductSummary{
			StockCode:   acc.stockCode,
			Description: acc.description,
			Quantity:    acc.quantity,
			Revenue:     acc.revenue,
		})
	}
	slices.SortFunc(result, func(a, b models.ProductSummary) int {
		switch order {
		case byQuantity:
			if a.Quantity != b.Quantity {
				return b.Quantity - a.Quantity
			}
		default:
			if a.Revenue != b.Revenue {
				if a.Revenue > b.Revenue {
					return -1
				}
				return 1
			}
		}
		return strings.Compare(a.StockCode, b.StockCode)
	})
	return result
}

// hourlyHistogram counts distinct orders per hour of day across all 24
// buckets, including empty ones.
func hourlyHistogram(hours [24]map[string]struct{}) []models.HourlyOrders {
	result := make([]models.HourlyOrders, 24)
	for h := range result {
		result[h] = models.HourlyOrders{Hour: h, Orders: len(hours[h])}
	}
	return result
}

func orderDistribution(customerOrders map[string]map[string]struct{}) []models.OrderSizeBucket {
	buckets := make(map[int]int)
	for _, orders := range customerOrders {
		n := len(orders)
		if n > 0 && n <= maxOrderBuckets {
			buckets[n]++
		}
	}
	result := make([]models.OrderSizeBucket, 0, len(buckets))
	for orders, count := range buckets {
		result = append(result, models.OrderSizeBucket{Orders: orders, Customers: count})
	}
	slices.SortFunc(result, func(a, b models.OrderSizeBucket) int {
		return a.Orders - b.Orders
	})
	return result
}

// TopN returns at most n leading entries of a ranked product list.
func TopN(products []models.ProductSummary, n int) []models.ProductSummary {
	if n <= 0 || len(products) <= n {
		return products
	}
	return products[:n]
}
