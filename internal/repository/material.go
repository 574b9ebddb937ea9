package repository

import (
	"context"
	"errors"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
)

// Storage-level sentinels. Implementations return these; the service layer maps
// them to its own taxonomy before they reach a handler.
var (
	// ErrNotFound means the requested row/record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateVote means this (material, user) pair already has a recorded vote.
	ErrDuplicateVote = errors.New("vote already recorded")
	// ErrDuplicateEmail means another user already registered with this email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnavailable means the underlying store could not be reached. Callers may
	// retry; every other error is terminal for the request.
	ErrUnavailable = errors.New("store unavailable")
)

// SortOrder selects how MaterialFilter results are ordered.
type SortOrder string

const (
	SortNewest  SortOrder = "newest"
	SortOldest  SortOrder = "oldest"
	SortPopular SortOrder = "popular"
)

// MaterialFilter narrows and orders a material listing. Zero values mean
// "no restriction"; an empty Sort falls back to SortNewest.
type MaterialFilter struct {
	// Search is matched case-insensitively as a substring of title or description.
	Search   string
	Category model.Category
	Year     model.AcademicYear
	Sort     SortOrder
}

// MaterialRepository is persistence for material records. No business logic here.
//
// List and ListByUploader return materials with vote counters only; FindByID
// additionally hydrates the voted user ids and the report sequence. Every call
// re-reads the store; nothing is cached between calls.
//
// Ordering: SortPopular is non-increasing by upvotes with ties kept in insertion
// order; SortNewest/SortOldest follow creation order.
type MaterialRepository interface {
	Create(ctx context.Context, m *model.Material) (*model.Material, error)
	FindByID(ctx context.Context, id string) (*model.Material, error)
	List(ctx context.Context, f MaterialFilter) ([]model.Material, error)
	ListByUploader(ctx context.Context, uploaderID string) ([]model.Material, error)
	// Delete removes a material and its votes and reports. ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
}

// VoteCounts is the authoritative counter pair after a ledger mutation.
type VoteCounts struct {
	Upvotes   int
	Downvotes int
}

// VoteLedger is the authoritative record of which users voted on which materials.
//
// Record must be a single atomic check-and-set per material: given concurrent
// calls for the same (materialID, userID) pair, exactly one succeeds and the rest
// fail with ErrDuplicateVote, and concurrent calls from distinct users must all
// land without losing counter increments.
type VoteLedger interface {
	// HasVoted reports whether the user already voted on the material.
	// ErrNotFound if the material does not exist.
	HasVoted(ctx context.Context, materialID, userID string) (bool, error)
	Record(ctx context.Context, materialID, userID string, vote model.VoteType) (VoteCounts, error)
}

// ReportLog is the append-only collection of moderation reports. Status
// transitions belong to the external moderation workflow, so there is
// deliberately no update or delete method.
type ReportLog interface {
	// Append records a report. It counts as a mutation of the material, so the
	// material's UpdatedAt advances with it. ErrNotFound if the material is absent.
	Append(ctx context.Context, r *model.Report) (*model.Report, error)
	ListByMaterial(ctx context.Context, materialID string) ([]model.Report, error)
	ListAll(ctx context.Context) ([]model.Report, error)
}
