package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// pgCode extracts the PostgreSQL error code, if any.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// classify translates driver-level failures into the repository sentinels.
// Connectivity problems become ErrUnavailable so callers know a retry is safe;
// everything else passes through wrapped.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %v", op, repository.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
