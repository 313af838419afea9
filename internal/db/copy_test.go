package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "ocr_pairs", []string{"document_id", "key"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"document_id", "seq", "key", "value"}
	mock.ExpectCopyFrom(pgx.Identifier{"ocr_pairs"}, cols).WillReturnResult(3)

	rows := [][]any{
		{"doc-1", 0, "Line 9", "$199,750"},
		{"doc-1", 1, "Line 11", "$193,750"},
		{"doc-1", 2, "Line 24", "$31,042"},
	}
	n, err := CopyFrom(context.Background(), mock, "ocr_pairs", cols, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"document_id", "key"}
	mock.ExpectCopyFrom(pgx.Identifier{"ocr_pairs"}, cols).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"doc-1", "Ending Balance"}}
	_, err = CopyFrom(context.Background(), mock, "ocr_pairs", cols, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO ocr_pairs")
	assert.NoError(t, mock.ExpectationsWereMet())
}
