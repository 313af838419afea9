package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/meridianlending/underwrite/internal/db"
	"github.com/meridianlending/underwrite/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// ocrColumns is the COPY column order for bulk OCR ingest.
var ocrColumns = []string{"document_id", "seq", "key", "value", "confidence", "page"}

// upsertDocumentSQL keys documents on (deal_id, file_name): re-uploading a
// file keeps the document id stable but resets its metadata and status,
// since stored OCR and extraction output no longer describe the new bytes.
var upsertDocumentSQL = db.UpsertSQL("documents",
	[]string{"id", "deal_id", "doc_type", "file_name", "file_size", "status", "year", "created_at", "updated_at"},
	[]string{"deal_id", "file_name"},
	"id", "created_at",
) + ` RETURNING id, status, created_at, updated_at`

// upsertExtractionSQL swaps the whole extraction record for a document.
var upsertExtractionSQL = db.UpsertSQL("extractions",
	[]string{"id", "document_id", "data", "created_at"},
	[]string{"document_id"},
	"id",
)

// upsertVerificationSQL keeps one verification per document, replaced on
// re-verify.
var upsertVerificationSQL = db.UpsertSQL("verifications",
	[]string{"id", "document_id", "result", "created_at"},
	[]string{"document_id"},
	"id",
)

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_deal":           `INSERT INTO deals (id, borrower_name, program_id, requested_amount, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"update_deal_structure": `UPDATE deals SET structure = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"get_deal":              `SELECT id, borrower_name, program_id, requested_amount, status, structure, created_at, updated_at FROM deals WHERE id = $1`,
	"list_documents":        `SELECT id, deal_id, doc_type, file_name, file_size, status, year, created_at, updated_at FROM documents WHERE deal_id = $1 ORDER BY file_name`,
	"get_ocr_pairs":         `SELECT key, value, confidence, page FROM ocr_pairs WHERE document_id = $1 ORDER BY seq`,
	"get_extraction":        `SELECT id, document_id, data, created_at FROM extractions WHERE document_id = $1`,
	"get_verification":      `SELECT result, created_at FROM verifications WHERE document_id = $1`,
	"update_doc_status":     `UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS deals (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	borrower_name    TEXT NOT NULL,
	program_id       TEXT NOT NULL,
	requested_amount NUMERIC(15,2) NOT NULL,
	status           TEXT NOT NULL DEFAULT 'draft',
	structure        JSONB,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	deal_id    TEXT NOT NULL REFERENCES deals(id),
	doc_type   TEXT NOT NULL,
	file_name  TEXT NOT NULL,
	file_size  BIGINT NOT NULL DEFAULT 0,
	status     TEXT NOT NULL DEFAULT 'uploaded',
	year       INTEGER,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (deal_id, file_name)
);

CREATE TABLE IF NOT EXISTS ocr_pairs (
	document_id TEXT NOT NULL REFERENCES documents(id),
	seq         INTEGER NOT NULL,
	key         TEXT NOT NULL,
	value       TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL DEFAULT 0,
	page        INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (document_id, seq)
);

CREATE TABLE IF NOT EXISTS extractions (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id TEXT NOT NULL UNIQUE REFERENCES documents(id),
	data        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS verifications (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id TEXT NOT NULL UNIQUE REFERENCES documents(id),
	result      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_deals_status ON deals(status);
CREATE INDEX IF NOT EXISTS idx_deals_program_id ON deals(program_id);
CREATE INDEX IF NOT EXISTS idx_documents_deal_id ON documents(deal_id);
CREATE INDEX IF NOT EXISTS idx_ocr_pairs_document_id ON ocr_pairs(document_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateDeal(ctx context.Context, borrowerName, programID string, requestedAmount float64) (*model.Deal, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO deals (id, borrower_name, program_id, requested_amount, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, borrowerName, programID, requestedAmount, string(model.DealStatusDraft), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert deal")
	}

	return &model.Deal{
		ID:              id,
		BorrowerName:    borrowerName,
		ProgramID:       programID,
		RequestedAmount: requestedAmount,
		Status:          model.DealStatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (s *PostgresStore) UpdateDealStructure(ctx context.Context, dealID string, out *model.StructureDealOutput) error {
	structureJSON, err := json.Marshal(out)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal structure")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE deals SET structure = $1, status = $2, updated_at = $3 WHERE id = $4`,
		structureJSON, string(out.Status), time.Now().UTC(), dealID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update deal structure %s", dealID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("deal not found: %s", dealID)
	}
	return nil
}

func (s *PostgresStore) GetDeal(ctx context.Context, dealID string) (*model.Deal, error) {
	var d model.Deal
	var structureNull *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, borrower_name, program_id, requested_amount, status, structure, created_at, updated_at FROM deals WHERE id = $1`,
		dealID,
	).Scan(&d.ID, &d.BorrowerName, &d.ProgramID, &d.RequestedAmount, &d.Status, &structureNull, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get deal %s", dealID)
	}

	if structureNull != nil {
		d.Structure = &model.StructureDealOutput{}
		if err := json.Unmarshal(*structureNull, d.Structure); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal structure")
		}
	}
	return &d, nil
}

func (s *PostgresStore) ListDeals(ctx context.Context, filter DealFilter) ([]model.Deal, error) {
	query := `SELECT id, borrower_name, program_id, requested_amount, status, structure, created_at, updated_at FROM deals WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.ProgramID != "" {
		query += fmt.Sprintf(` AND program_id = $%d`, argIdx)
		args = append(args, filter.ProgramID)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list deals")
	}
	defer rows.Close()

	var deals []model.Deal
	for rows.Next() {
		var d model.Deal
		var structureNull *[]byte

		if err := rows.Scan(&d.ID, &d.BorrowerName, &d.ProgramID, &d.RequestedAmount, &d.Status, &structureNull, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan deal")
		}
		if structureNull != nil {
			d.Structure = &model.StructureDealOutput{}
			if err := json.Unmarshal(*structureNull, d.Structure); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal structure")
			}
		}
		deals = append(deals, d)
	}
	return deals, eris.Wrap(rows.Err(), "postgres: list deals iterate")
}

func (s *PostgresStore) UpsertDocument(ctx context.Context, dealID string, doc model.Document) (*model.Document, error) {
	if _, err := model.ParseDocType(string(doc.DocType)); err != nil {
		return nil, eris.Wrap(err, "postgres: upsert document")
	}

	now := time.Now().UTC()
	doc.ID = uuid.New().String()
	doc.DealID = dealID
	if doc.Status == "" {
		doc.Status = model.DocStatusUploaded
	}

	var year *int
	if doc.Year > 0 {
		year = &doc.Year
	}

	err := s.pool.QueryRow(ctx, upsertDocumentSQL,
		doc.ID, dealID, string(doc.DocType), doc.FileName, doc.FileSize, string(doc.Status), year, now, now,
	).Scan(&doc.ID, &doc.Status, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert document %s", doc.FileName)
	}
	return &doc, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, dealID string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, deal_id, doc_type, file_name, file_size, status, year, created_at, updated_at FROM documents WHERE deal_id = $1 ORDER BY file_name`,
		dealID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		var year *int
		if err := rows.Scan(&d.ID, &d.DealID, &d.DocType, &d.FileName, &d.FileSize, &d.Status, &year, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		if year != nil {
			d.Year = *year
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

// SaveOCRPairs replaces the stored OCR output for a document in one
// transaction and advances the document to ocr_complete. Pair order is
// preserved via the seq column; reconciliation tie-breaks depend on it.
func (s *PostgresStore) SaveOCRPairs(ctx context.Context, documentID string, pairs []model.OCRPair) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save ocr pairs")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM ocr_pairs WHERE document_id = $1`, documentID); err != nil {
		return eris.Wrapf(err, "postgres: clear ocr pairs %s", documentID)
	}

	rows := make([][]any, len(pairs))
	for i, p := range pairs {
		rows[i] = []any{documentID, i, p.Key, p.Value, p.Confidence, p.Page}
	}
	if _, err := db.CopyFrom(ctx, tx, "ocr_pairs", ocrColumns, rows); err != nil {
		return eris.Wrapf(err, "postgres: save ocr pairs %s", documentID)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`,
		string(model.DocStatusOCRComplete), time.Now().UTC(), documentID,
	); err != nil {
		return eris.Wrapf(err, "postgres: mark ocr complete %s", documentID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit save ocr pairs")
}

func (s *PostgresStore) GetOCRPairs(ctx context.Context, documentID string) ([]model.OCRPair, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, value, confidence, page FROM ocr_pairs WHERE document_id = $1 ORDER BY seq`,
		documentID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get ocr pairs")
	}
	defer rows.Close()

	var pairs []model.OCRPair
	for rows.Next() {
		var p model.OCRPair
		if err := rows.Scan(&p.Key, &p.Value, &p.Confidence, &p.Page); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ocr pair")
		}
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "postgres: get ocr pairs iterate")
}

func (s *PostgresStore) SaveExtraction(ctx context.Context, documentID string, data map[string]any) (*model.Extraction, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal extraction")
	}

	ext := &model.Extraction{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.pool.Exec(ctx, upsertExtractionSQL, ext.ID, documentID, dataJSON, ext.CreatedAt); err != nil {
		return nil, eris.Wrapf(err, "postgres: save extraction %s", documentID)
	}

	if _, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`,
		string(model.DocStatusExtracted), time.Now().UTC(), documentID,
	); err != nil {
		return nil, eris.Wrapf(err, "postgres: mark extracted %s", documentID)
	}
	return ext, nil
}

func (s *PostgresStore) GetExtraction(ctx context.Context, documentID string) (*model.Extraction, error) {
	var ext model.Extraction
	var dataJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, document_id, data, created_at FROM extractions WHERE document_id = $1`,
		documentID,
	).Scan(&ext.ID, &ext.DocumentID, &dataJSON, &ext.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get extraction")
	}

	ext.Data, err = model.DecodeExtractionData(dataJSON)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: decode extraction")
	}
	return &ext, nil
}

func (s *PostgresStore) SaveVerification(ctx context.Context, documentID string, result *model.VerificationResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal verification")
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	if _, err := s.pool.Exec(ctx, upsertVerificationSQL, id, documentID, resultJSON, now); err != nil {
		return eris.Wrapf(err, "postgres: save verification %s", documentID)
	}

	if _, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`,
		string(model.DocStatusVerified), now, documentID,
	); err != nil {
		return eris.Wrapf(err, "postgres: mark verified %s", documentID)
	}
	return nil
}

func (s *PostgresStore) GetVerification(ctx context.Context, documentID string) (*model.VerificationResult, error) {
	var resultJSON []byte
	var createdAt time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT result, created_at FROM verifications WHERE document_id = $1`,
		documentID,
	).Scan(&resultJSON, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get verification")
	}

	var result model.VerificationResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal verification")
	}
	result.DocumentID = documentID
	result.CreatedAt = createdAt
	return &result, nil
}
