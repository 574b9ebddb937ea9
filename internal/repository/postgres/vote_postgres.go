package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
)

// VotePostgres is a PostgreSQL implementation of repository.VoteLedger.
//
// Atomicity comes from the unique index on (material_id, user_id): the insert
// with ON CONFLICT DO NOTHING is the single check-and-set, so concurrent votes
// for the same pair can never both take effect, and the counter update rides in
// the same transaction. There is no read-then-write window.
type VotePostgres struct {
	db *sql.DB
}

// NewVotePostgres creates a new VotePostgres ledger.
func NewVotePostgres(db *sql.DB) *VotePostgres {
	return &VotePostgres{db: db}
}

var _ repository.VoteLedger = (*VotePostgres)(nil)

// HasVoted reports whether the user already has a vote recorded on the material.
// Returns ErrNotFound if the material does not exist.
func (r *VotePostgres) HasVoted(ctx context.Context, materialID, userID string) (bool, error) {
	const q = `
		SELECT EXISTS(SELECT 1 FROM material_votes WHERE material_id = $1 AND user_id = $2)
		FROM materials WHERE id = $1
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, materialID, userID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, repository.ErrNotFound
		}
		return false, classify("check vote", err)
	}
	return exists, nil
}

// Record registers the vote and bumps the matching counter in one transaction.
// Returns ErrDuplicateVote if the pair already voted, ErrNotFound if the
// material does not exist.
func (r *VotePostgres) Record(ctx context.Context, materialID, userID string, vote model.VoteType) (repository.VoteCounts, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.VoteCounts{}, classify("begin vote tx", err)
	}
	defer tx.Rollback()

	const qInsert = `
		INSERT INTO material_votes (material_id, user_id, vote_type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (material_id, user_id) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, qInsert, materialID, userID, string(vote), time.Now().UTC())
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return repository.VoteCounts{}, repository.ErrNotFound
		}
		return repository.VoteCounts{}, classify("record vote", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return repository.VoteCounts{}, classify("record vote", err)
	}
	if n == 0 {
		return repository.VoteCounts{}, repository.ErrDuplicateVote
	}

	const qBump = `
		UPDATE materials
		SET upvotes   = upvotes   + CASE WHEN $2 = 'upvote'   THEN 1 ELSE 0 END,
		    downvotes = downvotes + CASE WHEN $2 = 'downvote' THEN 1 ELSE 0 END,
		    updated_at = $3
		WHERE id = $1
		RETURNING upvotes, downvotes
	`
	var counts repository.VoteCounts
	err = tx.QueryRowContext(ctx, qBump, materialID, string(vote), time.Now().UTC()).
		Scan(&counts.Upvotes, &counts.Downvotes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.VoteCounts{}, repository.ErrNotFound
		}
		return repository.VoteCounts{}, classify("bump counters", err)
	}

	if err := tx.Commit(); err != nil {
		return repository.VoteCounts{}, classify("commit vote", err)
	}
	return counts, nil
}
