package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/meridianlending/underwrite/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS deals (
	id               TEXT PRIMARY KEY,
	borrower_name    TEXT NOT NULL,
	program_id       TEXT NOT NULL,
	requested_amount REAL NOT NULL,
	status           TEXT NOT NULL DEFAULT 'draft',
	structure        TEXT,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	deal_id    TEXT NOT NULL REFERENCES deals(id),
	doc_type   TEXT NOT NULL,
	file_name  TEXT NOT NULL,
	file_size  INTEGER NOT NULL DEFAULT 0,
	status     TEXT NOT NULL DEFAULT 'uploaded',
	year       INTEGER,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (deal_id, file_name)
);

CREATE TABLE IF NOT EXISTS ocr_pairs (
	document_id TEXT NOT NULL REFERENCES documents(id),
	seq         INTEGER NOT NULL,
	key         TEXT NOT NULL,
	value       TEXT NOT NULL,
	confidence  REAL NOT NULL DEFAULT 0,
	page        INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (document_id, seq)
);

CREATE TABLE IF NOT EXISTS extractions (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL UNIQUE REFERENCES documents(id),
	data        TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS verifications (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL UNIQUE REFERENCES documents(id),
	result      TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_deals_status ON deals(status);
CREATE INDEX IF NOT EXISTS idx_deals_program_id ON deals(program_id);
CREATE INDEX IF NOT EXISTS idx_documents_deal_id ON documents(deal_id);
CREATE INDEX IF NOT EXISTS idx_ocr_pairs_document_id ON ocr_pairs(document_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateDeal(ctx context.Context, borrowerName, programID string, requestedAmount float64) (*model.Deal, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deals (id, borrower_name, program_id, requested_amount, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, borrowerName, programID, requestedAmount, string(model.DealStatusDraft), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert deal")
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

func (s *SQLiteStore) UpdateDealStructure(ctx context.Context, dealID string, out *model.StructureDealOutput) error {
	structureJSON, err := json.Marshal(out)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal structure")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE deals SET structure = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(structureJSON), string(out.Status), time.Now().UTC(), dealID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update deal structure %s", dealID)
	}
	return checkRowsAffected(res, "deal", dealID)
}

func (s *SQLiteStore) GetDeal(ctx context.Context, dealID string) (*model.Deal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, borrower_name, program_id, requested_amount, status, structure, created_at, updated_at FROM deals WHERE id = ?`,
		dealID,
	)
	return scanDeal(row)
}

func (s *SQLiteStore) ListDeals(ctx context.Context, filter DealFilter) ([]model.Deal, error) {
	query := `SELECT id, borrower_name, program_id, requested_amount, status, structure, created_at, updated_at FROM deals WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.ProgramID != "" {
		query += ` AND program_id = ?`
		args = append(args, filter.ProgramID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list deals")
	}
	defer rows.Close()

	var deals []model.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, *d)
	}
	return deals, eris.Wrap(rows.Err(), "sqlite: list deals iterate")
}

func (s *SQLiteStore) UpsertDocument(ctx context.Context, dealID string, doc model.Document) (*model.Document, error) {
	if _, err := model.ParseDocType(string(doc.DocType)); err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert document")
	}

	now := time.Now().UTC()
	doc.ID = uuid.New().String()
	doc.DealID = dealID
	if doc.Status == "" {
		doc.Status = model.DocStatusUploaded
	}

	var year any
	if doc.Year > 0 {
		year = doc.Year
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, deal_id, doc_type, file_name, file_size, status, year, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (deal_id, file_name) DO UPDATE SET
		   doc_type = excluded.doc_type, file_size = excluded.file_size,
		   status = excluded.status, year = excluded.year, updated_at = excluded.updated_at`,
		doc.ID, dealID, string(doc.DocType), doc.FileName, doc.FileSize, string(doc.Status), year, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert document %s", doc.FileName)
	}

	// On conflict the original row id survives; read it back.
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, created_at, updated_at FROM documents WHERE deal_id = ? AND file_name = ?`,
		dealID, doc.FileName,
	)
	if err := row.Scan(&doc.ID, &doc.Status, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert document %s", doc.FileName)
	}
	return &doc, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, dealID string) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, deal_id, doc_type, file_name, file_size, status, year, created_at, updated_at FROM documents WHERE deal_id = ? ORDER BY file_name`,
		dealID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		var year sql.NullInt64
		if err := rows.Scan(&d.ID, &d.DealID, &d.DocType, &d.FileName, &d.FileSize, &d.Status, &year, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		if year.Valid {
			d.Year = int(year.Int64)
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

func (s *SQLiteStore) SaveOCRPairs(ctx context.Context, documentID string, pairs []model.OCRPair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save ocr pairs")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ocr_pairs WHERE document_id = ?`, documentID); err != nil {
		return eris.Wrapf(err, "sqlite: clear ocr pairs %s", documentID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ocr_pairs (document_id, seq, key, value, confidence, page) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare ocr insert")
	}
	defer stmt.Close()

	for i, p := range pairs {
		if _, err := stmt.ExecContext(ctx, documentID, i, p.Key, p.Value, p.Confidence, p.Page); err != nil {
			return eris.Wrapf(err, "sqlite: insert ocr pair %d", i)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		string(model.DocStatusOCRComplete), time.Now().UTC(), documentID,
	); err != nil {
		return eris.Wrapf(err, "sqlite: mark ocr complete %s", documentID)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save ocr pairs")
}

func (s *SQLiteStore) GetOCRPairs(ctx context.Context, documentID string) ([]model.OCRPair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, confidence, page FROM ocr_pairs WHERE document_id = ? ORDER BY seq`,
		documentID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get ocr pairs")
	}
	defer rows.Close()

	var pairs []model.OCRPair
	for rows.Next() {
		var p model.OCRPair
		if err := rows.Scan(&p.Key, &p.Value, &p.Confidence, &p.Page); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ocr pair")
		}
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "sqlite: get ocr pairs iterate")
}

func (s *SQLiteStore) SaveExtraction(ctx context.Context, documentID string, data map[string]any) (*model.Extraction, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal extraction")
	}

	ext := &model.Extraction{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO extractions (id, document_id, data, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (document_id) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		ext.ID, documentID, string(dataJSON), ext.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: save extraction %s", documentID)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		string(model.DocStatusExtracted), time.Now().UTC(), documentID,
	); err != nil {
		return nil, eris.Wrapf(err, "sqlite: mark extracted %s", documentID)
	}
	return ext, nil
}

func (s *SQLiteStore) GetExtraction(ctx context.Context, documentID string) (*model.Extraction, error) {
	var ext model.Extraction
	var dataJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, document_id, data, created_at FROM extractions WHERE document_id = ?`,
		documentID,
	).Scan(&ext.ID, &ext.DocumentID, &dataJSON, &ext.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get extraction")
	}

	ext.Data, err = model.DecodeExtractionData([]byte(dataJSON))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: decode extraction")
	}
	return &ext, nil
}

func (s *SQLiteStore) SaveVerification(ctx context.Context, documentID string, result *model.VerificationResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal verification")
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verifications (id, document_id, result, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (document_id) DO UPDATE SET result = excluded.result, created_at = excluded.created_at`,
		id, documentID, string(resultJSON), now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save verification %s", documentID)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		string(model.DocStatusVerified), now, documentID,
	); err != nil {
		return eris.Wrapf(err, "sqlite: mark verified %s", documentID)
	}
	return nil
}

func (s *SQLiteStore) GetVerification(ctx context.Context, documentID string) (*model.VerificationResult, error) {
	var resultJSON string
	var createdAt time.Time

	err := s.db.QueryRowContext(ctx,
		`SELECT result, created_at FROM verifications WHERE document_id = ?`,
		documentID,
	).Scan(&resultJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get verification")
	}

	var result model.VerificationResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal verification")
	}
	result.DocumentID = documentID
	result.CreatedAt = createdAt
	return &result, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDeal(row scannable) (*model.Deal, error) {
	var d model.Deal
	var structureJSON sql.NullString

	err := row.Scan(&d.ID, &d.BorrowerName, &d.ProgramID, &d.RequestedAmount, &d.Status, &structureJSON, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("deal not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan deal")
	}

	if structureJSON.Valid {
		d.Structure = &model.StructureDealOutput{}
		if err := json.Unmarshal([]byte(structureJSON.String), d.Structure); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal structure")
		}
	}
	return &d, nil
}
