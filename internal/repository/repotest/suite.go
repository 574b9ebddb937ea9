// Package repotest is the shared contract suite for repository implementations.
// The postgres and memory stores must behave identically; both run this suite
// so the divergence between data-access layers cannot creep back in.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
)

// Stores bundles the three material-side contracts under test.
type Stores struct {
	Materials repository.MaterialRepository
	Votes     repository.VoteLedger
	Reports   repository.ReportLog
}

// Factory returns a fresh, empty set of stores for one subtest.
type Factory func(t *testing.T) Stores

// Run executes the full contract suite against the given factory.
func Run(t *testing.T, factory Factory) {
	t.Run("create and get round-trip", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		created := mustCreate(t, s, "Database Systems Notes", "b-tree internals", model.CategoryHandwrittenNotes, model.YearThird)

		got, err := s.Materials.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Database Systems Notes", got.Title)
		assert.Zero(t, got.Upvotes)
		assert.Zero(t, got.Downvotes)
		assert.Empty(t, got.Voted)
		assert.Empty(t, got.Reports)
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
	})

	t.Run("get unknown id", func(t *testing.T) {
		s := factory(t)
		_, err := s.Materials.FindByID(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("search is case-insensitive over title and description", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		mustCreate(t, s, "Operating Systems", "scheduling and paging", model.CategoryBooks, model.YearSecond)
		mustCreate(t, s, "Calculus Handbook", "covers OPERATING on limits", model.CategoryHandbooks, model.YearFirst)
		mustCreate(t, s, "Chemistry Papers", "organic reactions", model.CategoryPreviousYearPapers, model.YearFirst)

		got, err := s.Materials.List(ctx, repository.MaterialFilter{Search: "operating"})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		all, err := s.Materials.List(ctx, repository.MaterialFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("category and year filters are exact", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		mustCreate(t, s, "A", "x", model.CategoryBooks, model.YearSecond)
		mustCreate(t, s, "B", "x", model.CategoryBooks, model.YearThird)
		mustCreate(t, s, "C", "x", model.CategoryShortNotes, model.YearThird)

		got, err := s.Materials.List(ctx, repository.MaterialFilter{Category: model.CategoryBooks, Year: model.YearThird})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "B", got[0].Title)
	})

	t.Run("popular sort is non-increasing with insertion-order ties", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		a := mustCreate(t, s, "A", "x", model.CategoryBooks, model.YearFirst)
		b := mustCreate(t, s, "B", "x", model.CategoryBooks, model.YearFirst)
		c := mustCreate(t, s, "C", "x", model.CategoryBooks, model.YearFirst)

		// B gets two upvotes, A and C one each; A ties with C and was inserted first.
		for _, v := range []struct {
			materialID string
			userID     string
		}{
			{b.ID, "u1"}, {b.ID, "u2"}, {a.ID, "u3"}, {c.ID, "u4"},
		} {
			_, err := s.Votes.Record(ctx, v.materialID, v.userID, model.VoteUp)
			require.NoError(t, err)
		}

		got, err := s.Materials.List(ctx, repository.MaterialFilter{Sort: repository.SortPopular})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"B", "A", "C"}, []string{got[0].Title, got[1].Title, got[2].Title})
	})

	t.Run("newest and oldest orders", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		mustCreate(t, s, "first", "x", model.CategoryBooks, model.YearFirst)
		mustCreate(t, s, "second", "x", model.CategoryBooks, model.YearFirst)

		newest, err := s.Materials.List(ctx, repository.MaterialFilter{Sort: repository.SortNewest})
		require.NoError(t, err)
		assert.Equal(t, "second", newest[0].Title)

		oldest, err := s.Materials.List(ctx, repository.MaterialFilter{Sort: repository.SortOldest})
		require.NoError(t, err)
		assert.Equal(t, "first", oldest[0].Title)
	})

	t.Run("at most one vote per user", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		m := mustCreate(t, s, "Database Systems Notes", "x", model.CategoryHandwrittenNotes, model.YearThird)

		counts, err := s.Votes.Record(ctx, m.ID, "user1", model.VoteUp)
		require.NoError(t, err)
		assert.Equal(t, 1, counts.Upvotes)

		_, err = s.Votes.Record(ctx, m.ID, "user1", model.VoteUp)
		assert.ErrorIs(t, err, repository.ErrDuplicateVote)

		counts, err = s.Votes.Record(ctx, m.ID, "user2", model.VoteDown)
		require.NoError(t, err)
		assert.Equal(t, 1, counts.Upvotes)
		assert.Equal(t, 1, counts.Downvotes)

		voted, err := s.Votes.HasVoted(ctx, m.ID, "user1")
		require.NoError(t, err)
		assert.True(t, voted)

		voted, err = s.Votes.HasVoted(ctx, m.ID, "bystander")
		require.NoError(t, err)
		assert.False(t, voted)
	})

	t.Run("has-voted on unknown material", func(t *testing.T) {
		s := factory(t)
		_, err := s.Votes.HasVoted(context.Background(), uuid.NewString(), "user1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("votes and reports advance updated_at", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		m := mustCreate(t, s, "Touched", "x", model.CategoryBooks, model.YearFirst)

		_, err := s.Votes.Record(ctx, m.ID, "user1", model.VoteUp)
		require.NoError(t, err)
		afterVote, err := s.Materials.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, afterVote.UpdatedAt.After(m.UpdatedAt))

		_, err = s.Reports.Append(ctx, newReport(m.ID, "user2", "spam"))
		require.NoError(t, err)
		afterReport, err := s.Materials.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, afterReport.UpdatedAt.After(afterVote.UpdatedAt))
	})

	t.Run("vote counters always match the voted set", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		m := mustCreate(t, s, "Invariant", "x", model.CategoryBooks, model.YearFirst)
		for i := 0; i < 7; i++ {
			vote := model.VoteUp
			if i%2 == 1 {
				vote = model.VoteDown
			}
			_, err := s.Votes.Record(ctx, m.ID, uuid.NewString(), vote)
			require.NoError(t, err)
		}

		got, err := s.Materials.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, got.Upvotes+got.Downvotes, len(got.Voted))
		assert.Equal(t, 4, got.Upvotes)
		assert.Equal(t, 3, got.Downvotes)
	})

	t.Run("concurrent votes by the same user: exactly one wins", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		m := mustCreate(t, s, "Race", "x", model.CategoryBooks, model.YearFirst)

		const attempts = 8
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = s.Votes.Record(ctx, m.ID, "user4", model.VoteUp)
			}(i)
		}
		wg.Wait()

		var ok, dup int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, repository.ErrDuplicateVote):
				dup++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, attempts-1, dup)

		got, err := s.Materials.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Upvotes)
		assert.Equal(t, 1, len(got.Voted))
	})

	t.Run("concurrent votes by distinct users all land", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		m := mustCreate(t, s, "Contended", "x", model.CategoryBooks, model.YearFirst)

		const voters = 16
		var wg sync.WaitGroup
		for i := 0; i < voters; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				vote := model.VoteUp
				if i%2 == 1 {
					vote = model.VoteDown
				}
				_, err := s.Votes.Record(ctx, m.ID, uuid.NewString(), vote)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := s.Materials.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, voters/2, got.Upvotes)
		assert.Equal(t, voters/2, got.Downvotes)
		assert.Equal(t, voters, len(got.Voted))
	})

	t.Run("reports append in order and stay pending", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		m := mustCreate(t, s, "Flagged", "x", model.CategoryBooks, model.YearFirst)

		first, err := s.Reports.Append(ctx, newReport(m.ID, "user3", "plagiarized"))
		require.NoError(t, err)
		assert.NotEmpty(t, first.ID)
		assert.Equal(t, model.ReportPending, first.Status)

		// Same user may report the same material again.
		_, err = s.Reports.Append(ctx, newReport(m.ID, "user3", "still plagiarized"))
		require.NoError(t, err)

		got, err := s.Reports.ListByMaterial(ctx, m.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "plagiarized", got[0].Reason)
		assert.Equal(t, "still plagiarized", got[1].Reason)

		hydrated, err := s.Materials.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Len(t, hydrated.Reports, 2)
	})

	t.Run("full report log spans materials in insertion order", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		a := mustCreate(t, s, "A", "x", model.CategoryBooks, model.YearFirst)
		b := mustCreate(t, s, "B", "x", model.CategoryBooks, model.YearFirst)

		_, err := s.Reports.Append(ctx, newReport(a.ID, "user1", "spam"))
		require.NoError(t, err)
		_, err = s.Reports.Append(ctx, newReport(b.ID, "user2", "off-topic"))
		require.NoError(t, err)
		_, err = s.Reports.Append(ctx, newReport(a.ID, "user3", "broken file"))
		require.NoError(t, err)

		got, err := s.Reports.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"spam", "off-topic", "broken file"},
			[]string{got[0].Reason, got[1].Reason, got[2].Reason})
		assert.Equal(t, a.ID, got[2].MaterialID)
	})

	t.Run("report on unknown material", func(t *testing.T) {
		s := factory(t)
		_, err := s.Reports.Append(context.Background(), newReport(uuid.NewString(), "user3", "spam"))
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("delete removes material from get and list", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		m := mustCreate(t, s, "Doomed", "x", model.CategoryBooks, model.YearFirst)
		mustCreate(t, s, "Survivor", "x", model.CategoryBooks, model.YearFirst)

		require.NoError(t, s.Materials.Delete(ctx, m.ID))

		_, err := s.Materials.FindByID(ctx, m.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		all, err := s.Materials.List(ctx, repository.MaterialFilter{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Survivor", all[0].Title)

		assert.ErrorIs(t, s.Materials.Delete(ctx, m.ID), repository.ErrNotFound)
	})
}

func mustCreate(t *testing.T, s Stores, title, description string, cat model.Category, year model.AcademicYear) *model.Material {
	t.Helper()
	m, err := s.Materials.Create(context.Background(), &model.Material{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Category:    cat,
		Year:        year,
		FileKey:     "materials/" + uuid.NewString() + ".pdf",
		FileName:    "notes.pdf",
		Uploader:    model.Uploader{ID: uuid.NewString(), Name: "uploader"},
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	return m
}

func newReport(materialID, by, reason string) *model.Report {
	return &model.Report{
		ID:         uuid.NewString(),
		MaterialID: materialID,
		ReportedBy: by,
		Reason:     reason,
		Status:     model.ReportPending,
		CreatedAt:  time.Now().UTC(),
	}
}
