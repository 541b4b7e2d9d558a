package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"ct-housing-dashboard/models"
)

// requiredColumns are matched against the header with internal spaces
// removed, so "Property Type" and "PropertyType" both resolve.
var requiredColumns = []string{
	"Town", "Year", "PropertyType", "ResidentialType",
	"NumSales", "MedianSale", "AvgSalesRatio",
}

// ReadSales loads the pre-aggregated sales table from disk. An
// unreadable file or a missing required column is fatal for the
// dashboard; the caller reports it and exits. Malformed numeric fields
// never abort the load — they parse to NaN (or zero for counts/years,
// which the working-set filter then drops).
func ReadSales(path string) ([]*models.SaleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	return ParseSales(f)
}

// ParseSales reads the delimited table from r, header row first.
func ParseSales(r io.Reader) ([]*models.SaleRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ReplaceAll(strings.TrimSpace(h), " ", "")] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("dataset: missing column %q", col)
		}
	}

	var records []*models.SaleRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read row %d: %w", len(records)+2, err)
		}

		field := func(col string) string {
			if i := idx[col]; i < len(row) {
				return row[i]
			}
			return ""
		}

		records = append(records, &models.SaleRecord{
			Town:            field("Town"),
			Year:            parseInt(field("Year")),
			PropertyType:    field("PropertyType"),
			ResidentialType: field("ResidentialType"),
			NumSales:        parseInt(field("NumSales")),
			MedianSale:      parseFloat(field("MedianSale")),
			AvgSalesRatio:   parseFloat(field("AvgSalesRatio")),
		})
	}
	return records, nil
}

// parseFloat maps empty and malformed fields to NaN, never zero, so a
// blank AvgSalesRatio stays out of ratio averages without disturbing
// count-based aggregates.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseInt tolerates the "2019.0" form the upstream aggregation emits
// for year columns. Anything unparseable becomes zero and is filtered
// out of the working set downstream.
func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		return int(f)
	}
	return 0
}
