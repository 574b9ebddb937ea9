// Package memory is the in-memory twin of the postgres repositories. It backs
// tests and satisfies the exact same contract, including the vote ledger's
// atomic check-and-set, which here is a mutex held across the whole mutation.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
)

// Store holds materials, votes, and reports behind one lock and implements
// repository.MaterialRepository, repository.VoteLedger, and repository.ReportLog.
type Store struct {
	mu        sync.Mutex
	materials map[string]*materialRecord
	order     []string // material ids in insertion order
	reports   []model.Report
}

type materialRecord struct {
	m     model.Material
	voted map[string]model.VoteType
	seq   []string // voter ids in vote order
}

// NewStore creates an empty in-memory material store.
func NewStore() *Store {
	return &Store{materials: make(map[string]*materialRecord)}
}

var (
	_ repository.MaterialRepository = (*Store)(nil)
	_ repository.VoteLedger         = (*Store)(nil)
	_ repository.ReportLog          = (*Store)(nil)
)

// Create inserts a new material with zeroed counters.
func (s *Store) Create(_ context.Context, m *model.Material) (*model.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	cp.Upvotes = 0
	cp.Downvotes = 0
	cp.Voted = nil
	cp.Reports = nil
	cp.UpdatedAt = cp.CreatedAt
	s.materials[cp.ID] = &materialRecord{m: cp, voted: make(map[string]model.VoteType)}
	s.order = append(s.order, cp.ID)

	out := cp
	return &out, nil
}

// FindByID returns the material with voted ids and reports hydrated.
func (s *Store) FindByID(_ context.Context, id string) (*model.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.materials[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := rec.m
	out.Voted = append([]string(nil), rec.seq...)
	for _, rep := range s.reports {
		if rep.MaterialID == id {
			out.Reports = append(out.Reports, rep)
		}
	}
	return &out, nil
}

// List filters and sorts freshly on every call; counters only.
func (s *Store) List(_ context.Context, f repository.MaterialFilter) ([]model.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.Material, 0)
	search := strings.ToLower(f.Search)
	for _, id := range s.order {
		m := s.materials[id].m
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Title), search) &&
			!strings.Contains(strings.ToLower(m.Description), search) {
			continue
		}
		if f.Category != "" && m.Category != f.Category {
			continue
		}
		if f.Year != "" && m.Year != f.Year {
			continue
		}
		items = append(items, m)
	}

	switch f.Sort {
	case repository.SortOldest:
		// already in insertion order
	case repository.SortPopular:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Upvotes > items[j].Upvotes
		})
	default: // newest
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return items, nil
}

// ListByUploader returns the user's materials, newest first.
func (s *Store) ListByUploader(_ context.Context, uploaderID string) ([]model.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.Material, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		m := s.materials[s.order[i]].m
		if m.Uploader.ID == uploaderID {
			items = append(items, m)
		}
	}
	return items, nil
}

// Delete removes the material together with its votes and reports.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.materials[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.materials, id)
	for i, mid := range s.order {
		if mid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	kept := make([]model.Report, 0, len(s.reports))
	for _, rep := range s.reports {
		if rep.MaterialID != id {
			kept = append(kept, rep)
		}
	}
	s.reports = kept
	return nil
}

// HasVoted reports whether the user already voted on the material.
func (s *Store) HasVoted(_ context.Context, materialID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.materials[materialID]
	if !ok {
		return false, repository.ErrNotFound
	}
	_, voted := rec.voted[userID]
	return voted, nil
}

// Record is the atomic check-and-set: the lock covers the duplicate check, the
// ledger entry, and the counter bump, so a concurrent duplicate can never slip
// through between a read and a write.
func (s *Store) Record(_ context.Context, materialID, userID string, vote model.VoteType) (repository.VoteCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.materials[materialID]
	if !ok {
		return repository.VoteCounts{}, repository.ErrNotFound
	}
	if _, dup := rec.voted[userID]; dup {
		return repository.VoteCounts{}, repository.ErrDuplicateVote
	}
	rec.voted[userID] = vote
	rec.seq = append(rec.seq, userID)
	if vote == model.VoteUp {
		rec.m.Upvotes++
	} else {
		rec.m.Downvotes++
	}
	rec.m.UpdatedAt = time.Now().UTC()
	return repository.VoteCounts{Upvotes: rec.m.Upvotes, Downvotes: rec.m.Downvotes}, nil
}

// Append adds a report to the log, assigning an id if the caller left it empty.
func (s *Store) Append(_ context.Context, r *model.Report) (*model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.materials[r.MaterialID]; !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	s.reports = append(s.reports, cp)
	s.materials[r.MaterialID].m.UpdatedAt = time.Now().UTC()

	out := cp
	return &out, nil
}

// ListByMaterial returns the material's reports in insertion order.
func (s *Store) ListByMaterial(_ context.Context, materialID string) ([]model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.Report, 0)
	for _, rep := range s.reports {
		if rep.MaterialID == materialID {
			items = append(items, rep)
		}
	}
	return items, nil
}

// ListAll returns every report in insertion order.
func (s *Store) ListAll(_ context.Context) ([]model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Report(nil), s.reports...), nil
}
