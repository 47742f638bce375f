package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres. Section lists and the output are
// stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `id, owner_key, created_at, valid, failed_sections, omitted_sections,
       safe_mode, qa_skipped, warning_count, archive_key, output`

// Create inserts a new record.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO reports (
	id, owner_key, created_at, valid, failed_sections, omitted_sections,
	safe_mode, qa_skipped, warning_count, archive_key, output
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	failed, err := marshalJSONB(nonNil(rec.FailedSections))
	if err != nil {
		return err
	}
	omitted, err := marshalJSONB(nonNil(rec.OmittedSections))
	if err != nil {
		return err
	}
	output, err := marshalJSONB(rec.Output)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.OwnerKey,
		rec.CreatedAt,
		rec.Valid,
		failed,
		omitted,
		rec.SafeMode,
		rec.QaSkipped,
		rec.WarningCount,
		rec.ArchiveKey,
		output,
	)
	return err
}

// GetByID returns a record by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Record, error) {
	query := `SELECT ` + recordColumns + `
FROM reports
WHERE id = $1
LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// ListByOwner returns the owner's newest records first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerKey string, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + `
FROM reports
WHERE owner_key = $1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, ownerKey, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var failed, omitted, output []byte
	err := row.Scan(
		&rec.ID,
		&rec.OwnerKey,
		&rec.CreatedAt,
		&rec.Valid,
		&failed,
		&omitted,
		&rec.SafeMode,
		&rec.QaSkipped,
		&rec.WarningCount,
		&rec.ArchiveKey,
		&output,
	)
	if err != nil {
		return Record{}, err
	}
	if err := unmarshalJSONB(failed, &rec.FailedSections); err != nil {
		return Record{}, fmt.Errorf("decode failed_sections: %w", err)
	}
	if err := unmarshalJSONB(omitted, &rec.OmittedSections); err != nil {
		return Record{}, fmt.Errorf("decode omitted_sections: %w", err)
	}
	if err := unmarshalJSONB(output, &rec.Output); err != nil {
		return Record{}, fmt.Errorf("decode output: %w", err)
	}
	return rec, nil
}

func marshalJSONB(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb: %w", err)
	}
	return b, nil
}

func unmarshalJSONB(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}
