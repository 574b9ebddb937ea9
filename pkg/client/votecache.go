package client

import (
	"sync"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
)

// Counts is a local snapshot of a material's vote tallies.
type Counts struct {
	Upvotes   int
	Downvotes int
}

// VoteCache keeps speculative vote counts so a UI can show the effect of a
// vote before the server answers. Apply bumps the counts and keeps a snapshot;
// Confirm replaces them with the server's authoritative numbers and Rollback
// restores the snapshot. Safe for concurrent use.
type VoteCache struct {
	mu        sync.Mutex
	counts    map[string]Counts
	snapshots map[string]Counts
}

func NewVoteCache() *VoteCache {
	return &VoteCache{
		counts:    make(map[string]Counts),
		snapshots: make(map[string]Counts),
	}
}

// Seed installs known counts for a material, e.g. from a listing response.
func (vc *VoteCache) Seed(materialID string, upvotes, downvotes int) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.counts[materialID] = Counts{Upvotes: upvotes, Downvotes: downvotes}
}

// Apply speculatively records a vote and snapshots the previous counts so a
// failed request can be undone.
func (vc *VoteCache) Apply(materialID string, vote model.VoteType) {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	cur := vc.counts[materialID]
	vc.snapshots[materialID] = cur

	if vote == model.VoteUp {
		cur.Upvotes++
	} else {
		cur.Downvotes++
	}
	vc.counts[materialID] = cur
}

// Confirm replaces the speculative counts with the server's numbers and drops
// the snapshot.
func (vc *VoteCache) Confirm(materialID string, upvotes, downvotes int) {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	vc.counts[materialID] = Counts{Upvotes: upvotes, Downvotes: downvotes}
	delete(vc.snapshots, materialID)
}

// Rollback restores the counts saved by the last Apply.
func (vc *VoteCache) Rollback(materialID string) {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	if snap, ok := vc.snapshots[materialID]; ok {
		vc.counts[materialID] = snap
		delete(vc.snapshots, materialID)
	}
}

// Get returns the cached counts for a material.
func (vc *VoteCache) Get(materialID string) (Counts, bool) {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	c, ok := vc.counts[materialID]
	return c, ok
}
