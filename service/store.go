package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AnTengye/contractintel/model"

	_ "modernc.org/sqlite"
)

// Store errors, matched with errors.Is at the handler boundary.
var (
	ErrNotFound      = errors.New("contract not found")
	ErrDuplicateID   = errors.New("contract id already exists")
	ErrInvalidStatus = errors.New("invalid contract status")
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS contracts (
	contract_id   TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	file_path     TEXT NOT NULL,
	file_size     INTEGER NOT NULL,
	mime_type     TEXT NOT NULL,
	status        TEXT NOT NULL,
	progress      REAL NOT NULL DEFAULT 0,
	error_details TEXT NOT NULL DEFAULT '',
	raw_text      TEXT NOT NULL DEFAULT '',
	result_json   TEXT,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	completed_at  TEXT
);
CREATE INDEX IF NOT EXISTS idx_contracts_created_at ON contracts(created_at);
CREATE INDEX IF NOT EXISTS idx_contracts_status ON contracts(status);
`

// ContractStore persists contract records in SQLite. All methods are safe
// for concurrent use; ordering of concurrent writers to the same record is
// the pipeline's concern, not the store's.
type ContractStore struct {
	db *sql.DB
}

// OpenStore opens (and if necessary creates) the contract database at path,
// applying the production pragmas before installing the schema.
func OpenStore(path string) (*ContractStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("install schema: %w", err)
	}

	return &ContractStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *ContractStore) Close() error {
	return s.db.Close()
}

// Create persists a new contract record. The record's status must be valid
// and its id unused.
func (s *ContractStore) Create(ctx context.Context, c *model.Contract) error {
	if !c.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, c.Status)
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	resultJSON, err := marshalResult(c.Result)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO contracts
			(contract_id, filename, file_path, file_size, mime_type,
			 status, progress, error_details, raw_text, result_json,
			 created_at, updated_at, completed_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL
		WHERE NOT EXISTS (SELECT 1 FROM contracts WHERE contract_id = ?)`,
		c.ContractID, c.Filename, c.FilePath, c.FileSize, c.MimeType,
		string(c.Status), c.Progress, c.ErrorDetails, c.RawText, resultJSON,
		c.CreatedAt.Format(time.RFC3339Nano), c.UpdatedAt.Format(time.RFC3339Nano),
		c.ContractID,
	)
	if err != nil {
		return fmt.Errorf("create contract: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, c.ContractID)
	}
	return nil
}

// Get returns the contract with the given id, or ErrNotFound.
func (s *ContractStore) Get(ctx context.Context, id string) (*model.Contract, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT contract_id, filename, file_path, file_size, mime_type,
		       status, progress, error_details, raw_text, result_json,
		       created_at, updated_at, completed_at
		FROM contracts WHERE contract_id = ?`, id)
	return scanContract(row)
}

// UpdateStatus performs a partial update of the status fields. A nil
// progress leaves the stored progress untouched; an empty errorDetails
// leaves the stored detail untouched. Transitioning into Completed also
// stamps completed_at.
func (s *ContractStore) UpdateStatus(ctx context.Context, id string, status model.Status, progress *float64, errorDetails string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	query := "UPDATE contracts SET status = ?, updated_at = ?"
	args := []any{string(status), now}

	if progress != nil {
		query += ", progress = ?"
		args = append(args, *progress)
	}
	if errorDetails != "" {
		query += ", error_details = ?"
		args = append(args, errorDetails)
	}
	if status == model.StatusCompleted {
		query += ", completed_at = ?"
		args = append(args, now)
	}
	query += " WHERE contract_id = ?"
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// UpdateResult writes the raw text and the aggregated extraction envelope
// without touching the status fields.
func (s *ContractStore) UpdateResult(ctx context.Context, id string, rawText string, result *model.ExtractionEnvelope) error {
	resultJSON, err := marshalResult(result)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `
		UPDATE contracts SET raw_text = ?, result_json = ?, updated_at = ?
		WHERE contract_id = ?`, rawText, resultJSON, now, id)
	if err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns one reverse-chronological page of contracts, optionally
// filtered by status. An empty statusFilter matches all records.
func (s *ContractStore) List(ctx context.Context, page, limit int, statusFilter model.Status) (*model.ListResponse, error) {
	if statusFilter != "" && !statusFilter.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, statusFilter)
	}

	where := ""
	args := []any{}
	if statusFilter != "" {
		where = " WHERE status = ?"
		args = append(args, string(statusFilter))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contracts"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count contracts: %w", err)
	}

	offset := (page - 1) * limit
	rows, err := s.db.QueryContext(ctx, `
		SELECT contract_id, status, progress, error_details, created_at, updated_at
		FROM contracts`+where+`
		ORDER BY created_at DESC, contract_id
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	contracts := []model.StatusResponse{}
	for rows.Next() {
		var (
			sr                   model.StatusResponse
			status               string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&sr.ContractID, &status, &sr.Progress, &sr.ErrorDetails, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		sr.Status = model.Status(status)
		if sr.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if sr.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		contracts = append(contracts, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}

	return &model.ListResponse{
		Contracts: contracts,
		Total:     total,
		Page:      page,
		Limit:     limit,
		HasNext:   offset+limit < total,
		HasPrev:   page > 1,
	}, nil
}

// Delete removes a contract record.
func (s *ContractStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM contracts WHERE contract_id = ?", id)
	if err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func marshalResult(result *model.ExtractionEnvelope) (sql.NullString, error) {
	if result == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal result: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func scanContract(row *sql.Row) (*model.Contract, error) {
	var (
		c                    model.Contract
		status               string
		resultJSON           sql.NullString
		createdAt, updatedAt string
		completedAt          sql.NullString
	)
	err := row.Scan(&c.ContractID, &c.Filename, &c.FilePath, &c.FileSize, &c.MimeType,
		&status, &c.Progress, &c.ErrorDetails, &c.RawText, &resultJSON,
		&createdAt, &updatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan contract: %w", err)
	}

	c.Status = model.Status(status)
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		c.CompletedAt = &t
	}
	if resultJSON.Valid {
		var env model.ExtractionEnvelope
		if err := json.Unmarshal([]byte(resultJSON.String), &env); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		c.Result = &env
	}
	return &c, nil
}
