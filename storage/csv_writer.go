package storage

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"ct-housing-dashboard/models"
)

// CSVWriter exports the filtered working set back to a CSV with the same
// column layout as the upstream aggregation, so the export can be diffed
// against the input. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"Town", "Year", "PropertyType", "ResidentialType", "NumSales", "MedianSale", "AvgSalesRatio",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteWorkingSet writes all records sorted by town, year, and type for
// stable diffs. NaN numeric fields are written as empty strings, the
// same absent-value convention the source uses.
func (c *CSVWriter) WriteWorkingSet(rows []*models.SaleRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sorted := make([]*models.SaleRecord, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Town != b.Town {
			return a.Town < b.Town
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.ResidentialType < b.ResidentialType
	})

	for _, r := range sorted {
		row := []string{
			r.Town,
			strconv.Itoa(r.Year),
			r.PropertyType,
			r.ResidentialType,
			strconv.Itoa(r.NumSales),
			formatFloat(r.MedianSale),
			formatFloat(r.AvgSalesRatio),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
