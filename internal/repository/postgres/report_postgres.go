package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
)

// ReportPostgres is a PostgreSQL implementation of repository.ReportLog.
// The reports table is append-only; the type never updates or deletes a report.
type ReportPostgres struct {
	db *sql.DB
}

// NewReportPostgres creates a new ReportPostgres log.
func NewReportPostgres(db *sql.DB) *ReportPostgres {
	return &ReportPostgres{db: db}
}

var _ repository.ReportLog = (*ReportPostgres)(nil)

const reportColumns = `id, material_id, reported_by, reason, status, created_at`

// Append inserts a new report row and returns the stored record. Reporting is a
// mutation of the material, so its updated_at moves in the same transaction.
// Returns ErrNotFound if the material does not exist.
func (r *ReportPostgres) Append(ctx context.Context, rep *model.Report) (*model.Report, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin report tx", err)
	}
	defer tx.Rollback()

	const qTouch = `UPDATE materials SET updated_at = $2 WHERE id = $1`
	res, err := tx.ExecContext(ctx, qTouch, rep.MaterialID, time.Now().UTC())
	if err != nil {
		return nil, classify("touch material", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, classify("touch material", err)
	}
	if n == 0 {
		return nil, repository.ErrNotFound
	}

	const qInsert = `
		INSERT INTO reports (id, material_id, reported_by, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + reportColumns
	row := tx.QueryRowContext(ctx, qInsert,
		rep.ID,
		rep.MaterialID,
		rep.ReportedBy,
		rep.Reason,
		rep.Status,
		rep.CreatedAt,
	)
	out, err := scanReport(row)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return nil, repository.ErrNotFound
		}
		return nil, classify("append report", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify("commit report", err)
	}
	return out, nil
}

// ListByMaterial returns the material's reports in insertion order.
func (r *ReportPostgres) ListByMaterial(ctx context.Context, materialID string) ([]model.Report, error) {
	return listReports(ctx, r.db, materialID)
}

// ListAll returns every report in insertion order, for the moderation workflow.
func (r *ReportPostgres) ListAll(ctx context.Context) ([]model.Report, error) {
	const q = `SELECT ` + reportColumns + ` FROM reports ORDER BY seq ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, classify("list reports", err)
	}
	defer rows.Close()
	return collectReports(rows)
}

func scanReport(s interface{ Scan(...any) error }) (*model.Report, error) {
	var rep model.Report
	if err := s.Scan(
		&rep.ID,
		&rep.MaterialID,
		&rep.ReportedBy,
		&rep.Reason,
		&rep.Status,
		&rep.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rep, nil
}

func listReports(ctx context.Context, db *sql.DB, materialID string) ([]model.Report, error) {
	const q = `SELECT ` + reportColumns + ` FROM reports WHERE material_id = $1 ORDER BY seq ASC`
	rows, err := db.QueryContext(ctx, q, materialID)
	if err != nil {
		return nil, classify("list material reports", err)
	}
	defer rows.Close()
	return collectReports(rows)
}

func collectReports(rows *sql.Rows) ([]model.Report, error) {
	items := make([]model.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, classify("scan report", err)
		}
		items = append(items, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list reports", err)
	}
	return items, nil
}
