package storage

import "ct-housing-dashboard/models"

// RecordWriter is the interface any working-set sink must satisfy.
type RecordWriter interface {
	WriteWorkingSet(rows []*models.SaleRecord) error
	Close() error
}
