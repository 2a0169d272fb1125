// Package store defines the destination-store contract the sync stage
// writes through. Two implementations exist: the Airtable REST client for
// real runs and a local sqlite store for offline runs and tests.
package store

import (
	"context"
	"errors"
)

// ErrInvalidPayload marks a write the destination store rejected as
// structurally invalid. Retrying such a write cannot succeed, so callers
// skip the unit instead.
var ErrInvalidPayload = errors.New("store rejected payload as invalid")

// Record is one stored row: the store-assigned identifier plus its fields.
type Record struct {
	ID     string
	Fields map[string]interface{}
}

// RecordStore is the minimal record CRUD surface the sync stage needs.
type RecordStore interface {
	// Create inserts a record and returns it with its store-assigned ID.
	Create(ctx context.Context, table string, fields map[string]interface{}) (Record, error)

	// FindByField returns the records whose named field equals value.
	FindByField(ctx context.Context, table, field, value string) ([]Record, error)

	// List returns every record in the table.
	List(ctx context.Context, table string) ([]Record, error)

	// BatchDelete removes the given records, best effort: a failing chunk
	// does not stop the remaining chunks, and the first failure is reported.
	BatchDelete(ctx context.Context, table string, ids []string) error
}
