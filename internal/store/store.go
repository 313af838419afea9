// Package store persists deals, documents, OCR output, extractions, and
// verification results. Two implementations share the contract: PostgresStore
// for services and SQLiteStore for embedded or single-analyst deployments.
package store

import (
	"context"

	"github.com/meridianlending/underwrite/internal/model"
)

// DealFilter specifies criteria for listing deals.
type DealFilter struct {
	Status    model.DealStatus `json:"status,omitempty"`
	ProgramID string           `json:"program_id,omitempty"`
	Limit     int              `json:"limit,omitempty"`
	Offset    int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the underwriting pipeline.
// Get methods for per-document records (OCR pairs, extraction, verification)
// return nil with no error when nothing is stored yet.
type Store interface {
	// Deals
	CreateDeal(ctx context.Context, borrowerName, programID string, requestedAmount float64) (*model.Deal, error)
	UpdateDealStructure(ctx context.Context, dealID string, out *model.StructureDealOutput) error
	GetDeal(ctx context.Context, dealID string) (*model.Deal, error)
	ListDeals(ctx context.Context, filter DealFilter) ([]model.Deal, error)

	// Documents
	UpsertDocument(ctx context.Context, dealID string, doc model.Document) (*model.Document, error)
	ListDocuments(ctx context.Context, dealID string) ([]model.Document, error)
	SaveOCRPairs(ctx context.Context, documentID string, pairs []model.OCRPair) error
	GetOCRPairs(ctx context.Context, documentID string) ([]model.OCRPair, error)
	SaveExtraction(ctx context.Context, documentID string, data map[string]any) (*model.Extraction, error)
	GetExtraction(ctx context.Context, documentID string) (*model.Extraction, error)

	// Verifications
	SaveVerification(ctx context.Context, documentID string, result *model.VerificationResult) error
	GetVerification(ctx context.Context, documentID string) (*model.VerificationResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
