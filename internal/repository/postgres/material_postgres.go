package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
)

// MaterialPostgres is a PostgreSQL implementation of repository.MaterialRepository.
// It uses database/sql with parameterized queries and contains no business logic.
//
// The seq column (BIGSERIAL) records insertion order and is the tie-breaker for
// the popular sort as well as the definition of newest/oldest.
type MaterialPostgres struct {
	db *sql.DB
}

// NewMaterialPostgres creates a new MaterialPostgres repository.
func NewMaterialPostgres(db *sql.DB) *MaterialPostgres {
	return &MaterialPostgres{db: db}
}

var _ repository.MaterialRepository = (*MaterialPostgres)(nil)

const materialColumns = `id, title, description, category, academic_year, file_key, file_name,
		uploader_id, uploader_name, upvotes, downvotes, created_at, updated_at`

func scanMaterial(s interface{ Scan(...any) error }) (*model.Material, error) {
	var m model.Material
	if err := s.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.Category,
		&m.Year,
		&m.FileKey,
		&m.FileName,
		&m.Uploader.ID,
		&m.Uploader.Name,
		&m.Upvotes,
		&m.Downvotes,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new material row and returns the stored record.
func (r *MaterialPostgres) Create(ctx context.Context, m *model.Material) (*model.Material, error) {
	const q = `
		INSERT INTO materials (id, title, description, category, academic_year, file_key, file_name,
			uploader_id, uploader_name, upvotes, downvotes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0, $10, $10)
		RETURNING ` + materialColumns
	row := r.db.QueryRowContext(ctx, q,
		m.ID,
		m.Title,
		m.Description,
		m.Category,
		m.Year,
		m.FileKey,
		m.FileName,
		m.Uploader.ID,
		m.Uploader.Name,
		m.CreatedAt,
	)
	out, err := scanMaterial(row)
	if err != nil {
		return nil, classify("create material", err)
	}
	return out, nil
}

// FindByID fetches a single material and hydrates its voted user ids and reports.
func (r *MaterialPostgres) FindByID(ctx context.Context, id string) (*model.Material, error) {
	const q = `SELECT ` + materialColumns + ` FROM materials WHERE id = $1`
	m, err := scanMaterial(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classify("find material", err)
	}

	const qVotes = `SELECT user_id FROM material_votes WHERE material_id = $1 ORDER BY created_at, user_id`
	rows, err := r.db.QueryContext(ctx, qVotes, id)
	if err != nil {
		return nil, classify("load votes", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, classify("load votes", err)
		}
		m.Voted = append(m.Voted, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("load votes", err)
	}

	reports, err := listReports(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	m.Reports = reports
	return m, nil
}

// List returns materials matching the filter; counters only, no per-row hydration.
func (r *MaterialPostgres) List(ctx context.Context, f repository.MaterialFilter) ([]model.Material, error) {
	q := `
		SELECT ` + materialColumns + `
		FROM materials
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
		  AND ($3 = '' OR academic_year = $3)
	`
	switch f.Sort {
	case repository.SortOldest:
		q += ` ORDER BY seq ASC`
	case repository.SortPopular:
		q += ` ORDER BY upvotes DESC, seq ASC`
	default:
		q += ` ORDER BY seq DESC`
	}

	rows, err := r.db.QueryContext(ctx, q, f.Search, string(f.Category), string(f.Year))
	if err != nil {
		return nil, classify("list materials", err)
	}
	defer rows.Close()

	return collectMaterials(rows)
}

// ListByUploader returns every material shared by the given user, newest first.
func (r *MaterialPostgres) ListByUploader(ctx context.Context, uploaderID string) ([]model.Material, error) {
	const q = `SELECT ` + materialColumns + ` FROM materials WHERE uploader_id = $1 ORDER BY seq DESC`
	rows, err := r.db.QueryContext(ctx, q, uploaderID)
	if err != nil {
		return nil, classify("list uploader materials", err)
	}
	defer rows.Close()

	return collectMaterials(rows)
}

func collectMaterials(rows *sql.Rows) ([]model.Material, error) {
	items := make([]model.Material, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, classify("scan material", err)
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list materials", err)
	}
	return items, nil
}

// Delete removes a material. Votes and reports go with it via ON DELETE CASCADE.
func (r *MaterialPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM materials WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return classify("delete material", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("delete material", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
