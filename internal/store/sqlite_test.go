package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlending/underwrite/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_WALMode(t *testing.T) {
	st := newTestSQLiteStore(t)

	var mode string
	err := st.db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	// Migrate ran once in the helper; a second run must not disturb data.
	deal, err := st.CreateDeal(ctx, "Borrower", "sba_7a", 100000)
	require.NoError(t, err)

	require.NoError(t, st.Migrate(ctx))

	got, err := st.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, deal.ID, got.ID)
}

func TestSQLite_ListDeals_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	deals, err := st.ListDeals(context.Background(), DealFilter{})
	require.NoError(t, err)
	assert.Empty(t, deals)
}

func TestSQLite_ListDocuments_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	deal, err := st.CreateDeal(ctx, "Borrower", "sba_7a", 100000)
	require.NoError(t, err)

	docs, err := st.ListDocuments(ctx, deal.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSQLite_GetOCRPairs_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	pairs, err := st.GetOCRPairs(context.Background(), "no-such-document")
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestSQLite_OCRPairValueFidelity(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	deal, err := st.CreateDeal(ctx, "Borrower", "sba_7a", 100000)
	require.NoError(t, err)
	doc, err := st.UpsertDocument(ctx, deal.ID, model.Document{DocType: model.DocTypeForm1120S, FileName: "1120s.pdf"})
	require.NoError(t, err)

	// OCR values are stored verbatim; currency symbols, separators and
	// parenthesized negatives must survive the round trip untouched.
	pairs := []model.OCRPair{
		{Key: "Gross receipts or sales", Value: "$1,250,000.00", Confidence: 0.99, Page: 1},
		{Key: "Ordinary business income (loss)", Value: "(45,200)", Confidence: 0.91, Page: 1},
		{Key: "Interest rate", Value: "11.25%", Confidence: 0.88, Page: 2},
	}
	require.NoError(t, st.SaveOCRPairs(ctx, doc.ID, pairs))

	got, err := st.GetOCRPairs(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "$1,250,000.00", got[0].Value)
	assert.Equal(t, "(45,200)", got[1].Value)
	assert.Equal(t, "11.25%", got[2].Value)
}

func TestSQLite_StructureSurvivesRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))

	deal, err := st.CreateDeal(ctx, "Borrower", "sba_7a", 500000)
	require.NoError(t, err)
	require.NoError(t, st.UpdateDealStructure(ctx, deal.ID, sampleStructure(model.DealStatusApproved)))
	require.NoError(t, st.Close())

	st2, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st2.Close() })

	got, err := st2.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DealStatusApproved, got.Status)
	require.NotNil(t, got.Structure)
	assert.InDelta(t, 0.1125, got.Structure.Rules.Rate.TotalRate, 1e-9)
}
