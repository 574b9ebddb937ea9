package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/storage"
)

var tracer trace.Tracer = otel.Tracer("scholar-share/service")

// CreateMaterialInput carries everything needed to share a new material.
// File is streamed straight to object storage; only the reference is stored.
type CreateMaterialInput struct {
	Title       string
	Description string
	Category    model.Category
	Year        model.AcademicYear
	FileName    string
	ContentType string
	File        io.Reader
	Size        int64
}

// MaterialService defines the use cases for study materials. The authenticated
// user is always an explicit argument; nothing is read from ambient state.
type MaterialService interface {
	// Create validates the payload, uploads the file to object storage, and
	// persists the material; the stored object is rolled back if the DB save fails.
	Create(ctx context.Context, in CreateMaterialInput, uploader model.Uploader) (*model.Material, error)

	// Get returns a single material with its voted user ids and reports.
	Get(ctx context.Context, id string) (*model.Material, error)

	// List returns materials matching the filter, recomputed on every call.
	List(ctx context.Context, f repository.MaterialFilter) ([]model.Material, error)

	// ListByUploader returns the materials shared by one user, newest first.
	ListByUploader(ctx context.Context, uploaderID string) ([]model.Material, error)

	// Vote records an up/down vote for userID and returns the updated material.
	// A second vote by the same user fails with ErrAlreadyVoted.
	Vote(ctx context.Context, materialID, userID string, vote model.VoteType) (*model.Material, error)

	// Report files a moderation report against the material.
	Report(ctx context.Context, materialID, userID, reason string) (*model.Report, error)

	// Delete removes the material; only its uploader may do so.
	Delete(ctx context.Context, materialID, requesterID string) error

	// DownloadURL returns a time-limited URL for the stored document.
	DownloadURL(ctx context.Context, materialID string, expiry time.Duration) (string, error)
}

type materialService struct {
	store   storage.Storage
	repo    repository.MaterialRepository
	votes   repository.VoteLedger
	reports repository.ReportLog
	rewards RewardNotifier
}

// NewMaterialService constructs a MaterialService. A nil rewards notifier
// falls back to NopRewards.
func NewMaterialService(
	store storage.Storage,
	repo repository.MaterialRepository,
	votes repository.VoteLedger,
	reports repository.ReportLog,
	rewards RewardNotifier,
) MaterialService {
	if rewards == nil {
		rewards = NopRewards{}
	}
	return &materialService{store: store, repo: repo, votes: votes, reports: reports, rewards: rewards}
}

func (s *materialService) Create(ctx context.Context, in CreateMaterialInput, uploader model.Uploader) (*model.Material, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("title", "must not be empty")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, invalid("description", "must not be empty")
	}
	if !in.Category.Valid() {
		return nil, invalid("category", "unknown category")
	}
	if !in.Year.Valid() {
		return nil, invalid("year", "unknown academic year")
	}
	if in.File == nil {
		return nil, invalid("file", "file is required")
	}
	if uploader.ID == "" {
		return nil, invalid("uploader", "uploader id is required")
	}

	// Store the blob under a generated key; the original name is kept as metadata.
	key := filepath.ToSlash(filepath.Join("materials", uuid.NewString()+filepath.Ext(in.FileName)))
	objInfo, err := s.store.Put(ctx, key, in.File, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.FileName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	m := &model.Material{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Year:        in.Year,
		FileKey:     objInfo.Key,
		FileName:    in.FileName,
		Uploader:    uploader,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, m)
	if err != nil {
		// Rollback: remove the object so storage and DB stay in step.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", mapStoreErr(err))
	}

	s.rewards.MaterialUploaded(ctx, uploader.ID)
	return stored, nil
}

func (s *materialService) Get(ctx context.Context, id string) (*model.Material, error) {
	if id == "" {
		return nil, invalid("id", "id is required")
	}
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return m, nil
}

func (s *materialService) List(ctx context.Context, f repository.MaterialFilter) ([]model.Material, error) {
	if f.Sort == "" {
		f.Sort = repository.SortNewest
	}
	if f.Category != "" && !f.Category.Valid() {
		return nil, invalid("category", "unknown category")
	}
	if f.Year != "" && !f.Year.Valid() {
		return nil, invalid("year", "unknown academic year")
	}
	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return items, nil
}

func (s *materialService) ListByUploader(ctx context.Context, uploaderID string) ([]model.Material, error) {
	if uploaderID == "" {
		return nil, invalid("uploader", "uploader id is required")
	}
	items, err := s.repo.ListByUploader(ctx, uploaderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return items, nil
}

// Vote delegates the at-most-once guarantee to the ledger: Record is a single
// atomic check-and-set per (material, user) pair, so this method never races
// between checking and writing.
func (s *materialService) Vote(ctx context.Context, materialID, userID string, vote model.VoteType) (*model.Material, error) {
	ctx, span := tracer.Start(ctx, "material.vote")
	defer span.End()

	if materialID == "" {
		return nil, invalid("id", "material id is required")
	}
	if userID == "" {
		return nil, invalid("user", "user id is required")
	}
	if !vote.Valid() {
		return nil, invalid("voteType", "must be upvote or downvote")
	}

	if _, err := s.votes.Record(ctx, materialID, userID, vote); err != nil {
		return nil, mapStoreErr(err)
	}

	m, err := s.repo.FindByID(ctx, materialID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if vote == model.VoteUp {
		s.rewards.MaterialUpvoted(ctx, m.Uploader.ID)
	}
	return m, nil
}

func (s *materialService) Report(ctx context.Context, materialID, userID, reason string) (*model.Report, error) {
	if materialID == "" {
		return nil, invalid("id", "material id is required")
	}
	if userID == "" {
		return nil, invalid("user", "user id is required")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, invalid("reason", "must not be empty")
	}

	// Repeated reports, same user included, are fine: weeding out over-reporting
	// is the moderation workflow's call, not an input rule.
	rep, err := s.reports.Append(ctx, &model.Report{
		ID:         uuid.NewString(),
		MaterialID: materialID,
		ReportedBy: userID,
		Reason:     strings.TrimSpace(reason),
		Status:     model.ReportPending,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return rep, nil
}

func (s *materialService) Delete(ctx context.Context, materialID, requesterID string) error {
	if materialID == "" {
		return invalid("id", "material id is required")
	}
	m, err := s.repo.FindByID(ctx, materialID)
	if err != nil {
		return mapStoreErr(err)
	}
	if m.Uploader.ID != requesterID {
		return ErrForbidden
	}
	// Delete from storage first; if this fails, keep the row so the reference survives.
	if err := s.store.Delete(ctx, m.FileKey); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return mapStoreErr(s.repo.Delete(ctx, materialID))
}

func (s *materialService) DownloadURL(ctx context.Context, materialID string, expiry time.Duration) (string, error) {
	m, err := s.Get(ctx, materialID)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, m.FileKey, expiry)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return url, nil
}
