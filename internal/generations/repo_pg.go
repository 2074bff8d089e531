package generations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const generationColumns = `id, user_id, analysis_id, company_name, job_title, storage_key, file_name, render_path,
    ats_before, ats_after, keywords_added, created_at, expired_at`

// Create inserts a generation row.
func (r *PGRepo) Create(ctx context.Context, gen Generation) error {
	keywords, err := json.Marshal(nonNilStrings(gen.KeywordsAdded))
	if err != nil {
		return fmt.Errorf("encode keywords_added: %w", err)
	}
	const query = `
INSERT INTO generations (
    id, user_id, analysis_id, company_name, job_title, storage_key, file_name, render_path,
    ats_before, ats_after, keywords_added, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.DB.ExecContext(ctx, query,
		gen.ID,
		gen.UserID,
		gen.AnalysisID,
		gen.CompanyName,
		gen.JobTitle,
		gen.StorageKey,
		gen.FileName,
		gen.RenderPath,
		gen.ATSBefore,
		gen.ATSAfter,
		keywords,
		gen.CreatedAt,
	)
	return err
}

// GetByID returns a generation by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, generationID string) (Generation, error) {
	query := `
SELECT ` + generationColumns + `
FROM generations
WHERE id = $1
LIMIT 1`
	gen, err := scanGeneration(r.DB.QueryRowContext(ctx, query, generationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Generation{}, ErrNotFound
		}
		return Generation{}, err
	}
	if gen.UserID != userID {
		return Generation{}, ErrForbidden
	}
	return gen, nil
}

// ListByUser lists generations ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Generation, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + generationColumns + `
FROM generations
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Generation{}
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, gen)
	}
	return out, rows.Err()
}

// MarkExpired stamps expired_at once the artifact has been deleted.
func (r *PGRepo) MarkExpired(ctx context.Context, generationID string, at time.Time) error {
	const query = `UPDATE generations SET expired_at = $2 WHERE id = $1 AND expired_at IS NULL`
	_, err := r.DB.ExecContext(ctx, query, generationID, at)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (Generation, error) {
	var (
		gen       Generation
		keywords  []byte
		expiredAt sql.NullTime
	)
	if err := row.Scan(
		&gen.ID,
		&gen.UserID,
		&gen.AnalysisID,
		&gen.CompanyName,
		&gen.JobTitle,
		&gen.StorageKey,
		&gen.FileName,
		&gen.RenderPath,
		&gen.ATSBefore,
		&gen.ATSAfter,
		&keywords,
		&gen.CreatedAt,
		&expiredAt,
	); err != nil {
		return Generation{}, err
	}
	gen.KeywordsAdded = []string{}
	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &gen.KeywordsAdded); err != nil {
			return Generation{}, fmt.Errorf("decode keywords_added: %w", err)
		}
	}
	if expiredAt.Valid {
		t := expiredAt.Time
		gen.ExpiredAt = &t
	}
	return gen, nil
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

var _ Repo = (*PGRepo)(nil)
