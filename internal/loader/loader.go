package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"retail-dashboard/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// columns is the fixed schema of the retail export, validated against the
// header row before any record is parsed.
var columns = []string{
	"InvoiceNo", "StockCode", "Description", "Quantity",
	"InvoiceDate", "UnitPrice", "CustomerID", "Country",
}

// dateLayouts accepted for the InvoiceDate column. The UCI export uses
// M/D/YYYY H:MM; the rest are common re-export formats.
var dateLayouts = []string{
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02",
}

// Loader streams the transaction CSV into an immutable models.Dataset.
type Loader struct {
	logger   *slog.Logger
	cacheDir string
}

func New(logger *slog.Logger, cacheDir string) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, cacheDir: cacheDir}
}

// Load parses the CSV at path into a cleaned dataset. Rows with
// non-numeric quantity or price, a non-positive unit price, or an empty
// description are counted as invalid and skipped. Rows with non-positive
// quantity or a cancelled invoice (identifier prefixed with "C") are
// counted as returns and excluded. A missing or malformed header is a
// load error; so is a file with no valid record at all.
func (l *Loader) Load(ctx context.Context, path string) (*models.Dataset, error) {
	if cached, err := l.loadFromCache(path); err == nil {
		info, err := os.Stat(path)
		if err == nil && info.ModTime().Before(cached.LoadedAt) {
			l.logger.Info("loaded dataset from cache", "records", len(cached.Transactions))
			return cached, nil
		}
	}

	start := time.Now()
	l.logger.Info("loading transaction csv", "path", path)

	ds, err := l.parseFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if err := l.saveToCache(ds); err != nil {
		l.logger.Warn("failed to save dataset cache", "error", err)
	}

	duration := time.Since(start)
	l.logger.Info("csv load complete",
		"records", len(ds.Transactions),
		"invalid", ds.RowsInvalid,
		"returns", ds.RowsReturns,
		"duration", duration,
	)
	return ds, nil
}

func (l *Loader) parseFile(ctx context.Context, path string) (*models.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024) // 10MB buffer

	if !scanner.Scan() {
		return nil, fmt.Errorf("empty file")
	}
	if err := validateHeader(scanner.Text()); err != nil {
		return nil, err
	}

	ds := &models.Dataset{SourcePath: path}
	var mu sync.Mutex

	batch := make([]string, 0, batchSize)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		batch = append(batch, scanner.Text())
		if len(batch) >= batchSize {
			if err := l.parseBatch(ctx, batch, &mu, ds); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := l.parseBatch(ctx, batch, &mu, ds); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}

	if len(ds.Transactions) == 0 {
		return nil, fmt.Errorf("no valid records found")
	}

	ds.LoadedAt = time.Now()
	return ds, nil
}

func (l *Loader) parseBatch(ctx context.Context, batch []string, mu *sync.Mutex, ds *models.Dataset) error {
	type parsedRow struct {
		tx      models.Transaction
		invalid bool
		ret     bool
	}

	var wg errgroup.Group
	wg.SetLimit(maxWorkers)

	rowChan := make(chan parsedRow, len(batch))

	for _, line := range batch {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			tx, err := parseTransaction(line)
			if err != nil {
				rowChan <- parsedRow{invalid: true}
				return nil
			}
			if isReturn(tx) {
				rowChan <- parsedRow{ret: true}
				return nil
			}
			rowChan <- parsedRow{tx: tx}
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		close(rowChan)
		return err
	}
	close(rowChan)

	local := make([]models.Transaction, 0, len(batch))
	var invalid, returns int64
	for row := range rowChan {
		switch {
		case row.invalid:
			invalid++
		case row.ret:
			returns++
		default:
			local = append(local, row.tx)
		}
	}

	mu.Lock()
	ds.Transactions = append(ds.Transactions, local...)
	ds.RowsRead += int64(len(batch))
	ds.RowsInvalid += invalid
	ds.RowsReturns += returns
	mu.Unlock()

	return nil
}

func validateHeader(line string) error {
	fields, err := splitCSVLine(line)
	if err != nil {
		return fmt.Errorf("malformed header: %w", err)
	}
	if len(fields) < len(columns) {
		return fmt.Errorf("header has %d columns, want %d", len(fields), len(columns))
	}
	for i, want := range columns {
		got := strings.TrimSpace(strings.TrimPrefix(fields[i], "\uFEFF"))
		if !strings.EqualFold(got, want) {
			return fmt.Errorf("header column %d is %q, want %q", i, got, want)
		}
	}
	return nil
}

func parseTransaction(line string) (models.Transaction, error) {
	fields, err := splitCSVLine(line)
	if err != nil {
		return models.Transaction{}, err
	}
	if len(fields) < len(columns) {
		return models.Transaction{}, fmt.Errorf("insufficient columns")
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil {
		return models.Transaction{}, err
	}

	date, err := parseDate(strings.TrimSpace(fields[4]))
	if err != nil {
		return models.Transaction{}, err
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(fields[5]), 64)
	if err != nil {
		return models.Transaction{}, err
	}

	description := strings.TrimSpace(fields[2])
	if price <= 0 || description == "" {
		return models.Transaction{}, fmt.Errorf("invalid row")
	}

	return models.Transaction{
		InvoiceNo:   strings.TrimSpace(fields[0]),
		StockCode:   strings.TrimSpace(fields[1]),
		Description: description,
		Quantity:    quantity,
		InvoiceDate: date,
		UnitPrice:   price,
		CustomerID:  strings.TrimSpace(fields[6]),
		Country:     strings.TrimSpace(fields[7]),
	}, nil
}

// isReturn reports whether the row is a return or cancellation. Both
// negative-quantity rows and "C"-prefixed invoices are treated uniformly
// as returns and excluded from the dataset.
func isReturn(tx models.Transaction) bool {
	if tx.Quantity <= 0 {
		return true
	}
	return strings.HasPrefix(tx.InvoiceNo, "C") || strings.HasPrefix(tx.InvoiceNo, "c")
}

// splitCSVLine parses one record with full quoting rules; product
// descriptions routinely contain commas.
func splitCSVLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.LazyQuotes = true
	return r.Read()
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
