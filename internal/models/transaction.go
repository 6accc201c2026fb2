package models

import "time"

// Transaction is one line item of a retail invoice as it appears in the
// source CSV. An invoice may span several transactions.
type Transaction struct {
	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    int
	InvoiceDate time.Time
	UnitPrice   float64
	CustomerID  string
	Country     string
}

// Amount is the revenue contribution of this line item.
func (t Transaction) Amount() float64 {
	return float64(t.Quantity) * t.UnitPrice
}

// Dataset is the cleaned transaction set loaded at startup. It is built
// once by the loader and never mutated afterwards; all aggregation reads
// from it.
type Dataset struct {
	Transactions []Transaction
	SourcePath   string
	LoadedAt     time.Time
	RowsRead     int64
	RowsInvalid  int64
	RowsReturns  int64
}

// Metrics are the headline KPIs of a (possibly filtered) transaction set.
type Metrics struct {
	TotalRevenue  float64 `json:"total_revenue"`
	OrderCount    int     `json:"order_count"`
	CustomerCount int     `json:"customer_count"`
	AvgOrderValue float64 `json:"avg_order_value"`
	RecordCount   int     `json:"record_count"`
}

type MonthlySummary struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

type CountryRevenue struct {
	Country string  `json:"country"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

type ProductSummary struct {
	StockCode   string  `json:"stock_code"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

type HourlyOrders struct {
	Hour   int `json:"hour"`
	Orders int `json:"orders"`
}

// OrderSizeBucket groups customers by how many distinct orders they placed.
type OrderSizeBucket struct {
	Orders    int `json:"orders"`
	Customers int `json:"customers"`
}

// DatasetInfo summarizes the loaded dataset for the sidebar and admin stats.
type DatasetInfo struct {
	Records     int       `json:"records"`
	Countries   int       `json:"countries"`
	Products    int       `json:"products"`
	Orders      int       `json:"orders"`
	RowsRead    int64     `json:"rows_read"`
	RowsInvalid int64     `json:"rows_invalid"`
	RowsReturns int64     `json:"rows_returns"`
	LoadedAt    time.Time `json:"loaded_at"`
	FirstDate   string    `json:"first_date,omitempty"`
	LastDate    string    `json:"last_date,omitempty"`
}
