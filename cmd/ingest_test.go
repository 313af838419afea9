package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlending/underwrite/internal/config"
	"github.com/meridianlending/underwrite/internal/memo"
	"github.com/meridianlending/underwrite/internal/model"
)

// TestIngestLifecycle walks a document through the full ingest path against
// a real sqlite store: upload, OCR save, extraction save, verification.
func TestIngestLifecycle(t *testing.T) {
	dir := t.TempDir()
	cfg = &config.Config{Store: config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(dir, "test.db"),
	}}

	ctx := context.Background()
	st, err := initStore(ctx)
	require.NoError(t, err)
	defer st.Close()

	deal, err := st.CreateDeal(ctx, "Harbor Point LLC", "commercial_cre", 850_000)
	require.NoError(t, err)

	extractionPath := filepath.Join(dir, "w2-2025.json")
	require.NoError(t, os.WriteFile(extractionPath, []byte(
		`{"wages_box1": 85000, "medicareWages_box5": 85000, "federalWithheld_box2": 9100}`,
	), 0o644))
	ocrPath := filepath.Join(dir, "w2-2025.ocr.json")
	require.NoError(t, os.WriteFile(ocrPath, []byte(
		`[{"key": "Wages, tips, other compensation", "value": "85,000.00", "page": 1},
		  {"key": "Medicare wages and tips", "value": "85,000.00", "page": 1}]`,
	), 0o644))

	ingestDeal = deal.ID
	ingestDocType = string(model.DocTypeW2)
	ingestExtraction = extractionPath
	ingestOCR = ocrPath
	ingestYear = 2025
	ingestCmd.SetContext(ctx)

	require.NoError(t, ingestCmd.RunE(ingestCmd, nil))

	docs, err := st.ListDocuments(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, model.DocTypeW2, docs[0].DocType)
	assert.Equal(t, "w2-2025.json", docs[0].FileName)
	assert.Equal(t, 2025, docs[0].Year)
	assert.Equal(t, model.DocStatusVerified, docs[0].Status)

	pairs, err := st.GetOCRPairs(ctx, docs[0].ID)
	require.NoError(t, err)
	assert.Len(t, pairs, 2)

	ext, err := st.GetExtraction(ctx, docs[0].ID)
	require.NoError(t, err)
	require.NotNil(t, ext)
	assert.Equal(t, 85000.0, ext.Data["wages_box1"])

	result, err := st.GetVerification(ctx, docs[0].ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, model.DocTypeW2, result.DocType)

	passed, checks := result.MathCheckStats()
	assert.Equal(t, checks, passed, "all math checks should pass on consistent W-2")

	// The stored inventory and verification feed straight into the memo.
	in := memo.Input{Analysis: &model.Analysis{}}
	memoDeal = deal.ID
	defer func() { memoDeal = "" }()
	require.NoError(t, fillMemoFromStore(ctx, &in))

	assert.Equal(t, "Harbor Point LLC", in.BorrowerName)
	assert.Equal(t, 850_000.0, in.RequestedAmount)
	require.Len(t, in.Documents, 1)
	require.Len(t, in.Verifications, 1)
	assert.Equal(t, model.DocTypeW2, in.Verifications[0].DocType)
}

func TestIngestRejectsUnknownDocType(t *testing.T) {
	ingestDocType = "LOAN_APPLICATION"
	ingestCmd.SetContext(context.Background())

	err := ingestCmd.RunE(ingestCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown document type")
}

func TestIngestRejectsMissingDeal(t *testing.T) {
	dir := t.TempDir()
	cfg = &config.Config{Store: config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(dir, "test.db"),
	}}

	extractionPath := filepath.Join(dir, "w2.json")
	require.NoError(t, os.WriteFile(extractionPath, []byte(`{"wages_box1": 1000}`), 0o644))
	ocrPath := filepath.Join(dir, "w2.ocr.json")
	require.NoError(t, os.WriteFile(ocrPath, []byte(`[]`), 0o644))

	ingestDeal = "no-such-deal"
	ingestDocType = string(model.DocTypeW2)
	ingestExtraction = extractionPath
	ingestOCR = ocrPath
	ingestCmd.SetContext(context.Background())

	err := ingestCmd.RunE(ingestCmd, nil)
	require.Error(t, err)
}
