package storage

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"ct-housing-dashboard/models"
	"ct-housing-dashboard/utils"
)

// PostgresWriter mirrors the working set to PostgreSQL so the report can
// be regenerated from the database instead of the CSV.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS town_sales (
			id               SERIAL PRIMARY KEY,
			town             TEXT         NOT NULL,
			year             INT          NOT NULL,
			property_type    TEXT         NOT NULL DEFAULT '',
			residential_type TEXT         NOT NULL,
			num_sales        INT          NOT NULL DEFAULT 0,
			median_sale      NUMERIC(12,2),
			avg_sales_ratio  NUMERIC(8,4),
			UNIQUE (town, year, property_type, residential_type)
		);

		CREATE INDEX IF NOT EXISTS idx_town_sales_town ON town_sales(town);
		CREATE INDEX IF NOT EXISTS idx_town_sales_year ON town_sales(year);
	`)
	return err
}

// Clear deletes all existing rows from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM town_sales")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// WriteWorkingSet batch-inserts the filtered records, clearing old data first.
func (pw *PostgresWriter) WriteWorkingSet(rows []*models.SaleRecord) error {
	if len(rows) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := pw.insertBatch(rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.SaleRecord) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*7)

	for idx, r := range batch {
		base := idx * 7
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs,
			r.Town, r.Year, r.PropertyType, r.ResidentialType, r.NumSales,
			nullable(r.MedianSale), nullable(r.AvgSalesRatio))
	}

	query := fmt.Sprintf(`
		INSERT INTO town_sales (town, year, property_type, residential_type, num_sales, median_sale, avg_sales_ratio)
		VALUES %s
		ON CONFLICT (town, year, property_type, residential_type) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored records — used by the insight report.
// SQL NULLs come back as NaN, matching the loader's absent-value
// convention.
func (pw *PostgresWriter) FetchAll() ([]*models.SaleRecord, error) {
	rows, err := pw.db.Query(`
		SELECT town, year, property_type, residential_type, num_sales, median_sale, avg_sales_ratio
		FROM town_sales
		ORDER BY town, year, residential_type
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var records []*models.SaleRecord
	for rows.Next() {
		r := &models.SaleRecord{}
		var median, ratio sql.NullFloat64
		if err := rows.Scan(
			&r.Town, &r.Year, &r.PropertyType, &r.ResidentialType,
			&r.NumSales, &median, &ratio,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		r.MedianSale = fromNullable(median)
		r.AvgSalesRatio = fromNullable(ratio)
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
