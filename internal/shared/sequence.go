package shared

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Document types known to the reference generator.
const (
	DocTypeDispatch     = "route_dispatch"
	DocTypeTripSheet    = "trip_sheet"
	DocTypeLorryReceipt = "lorry_receipt"
	DocTypePOD          = "proof_of_delivery"
	DocTypeEwayBill     = "eway_bill"
	DocTypeContract     = "logistics_contract"
)

var referencePrefixes = map[string]string{
	DocTypeDispatch:     "RD",
	DocTypeTripSheet:    "TS",
	DocTypeLorryReceipt: "LR",
	DocTypePOD:          "POD",
	DocTypeEwayBill:     "EWB",
	DocTypeContract:     "CT",
}

// Querier is the subset of pgx executors the generator needs, satisfied by
// both *pgxpool.Pool and pgx.Tx so references can be issued inside the
// creating transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ReferenceGenerator issues unique, monotonically increasing document
// references per document type, backed by the document_sequences table.
type ReferenceGenerator struct{}

// NewReferenceGenerator constructs a ReferenceGenerator.
func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{}
}

// Next returns the next reference for docType, e.g. LR-00042. The row
// update serialises concurrent callers so no value is ever issued twice.
func (g *ReferenceGenerator) Next(ctx context.Context, q Querier, docType string) (string, error) {
	prefix, ok := referencePrefixes[docType]
	if !ok {
		return "", fmt.Errorf("sequence: unknown document type %q", docType)
	}
	var value int64
	err := q.QueryRow(ctx,
		`INSERT INTO document_sequences (doc_type, last_value)
		 VALUES ($1, 1)
		 ON CONFLICT (doc_type)
		 DO UPDATE SET last_value = document_sequences.last_value + 1
		 RETURNING last_value`, docType).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("sequence: next %s: %w", docType, err)
	}
	return fmt.Sprintf("%s-%05d", prefix, value), nil
}
