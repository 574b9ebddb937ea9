package model

import "time"

// Category is the fixed set of material categories students can upload under.
type Category string

const (
	CategoryPreviousYearPapers Category = "Previous Year Papers"
	CategoryHandwrittenNotes   Category = "Handwritten Notes"
	CategoryBooks              Category = "Books"
	CategoryShortNotes         Category = "Short Notes"
	CategoryHandbooks          Category = "Handbooks"
)

// Categories lists every valid category, in display order.
var Categories = []Category{
	CategoryPreviousYearPapers,
	CategoryHandwrittenNotes,
	CategoryBooks,
	CategoryShortNotes,
	CategoryHandbooks,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// AcademicYear is the fixed set of study years a material targets.
type AcademicYear string

const (
	YearFirst  AcademicYear = "1st Year"
	YearSecond AcademicYear = "2nd Year"
	YearThird  AcademicYear = "3rd Year"
	YearFourth AcademicYear = "4th Year"
)

// AcademicYears lists every valid academic year, in display order.
var AcademicYears = []AcademicYear{YearFirst, YearSecond, YearThird, YearFourth}

// Valid reports whether y is one of the known academic years.
func (y AcademicYear) Valid() bool {
	for _, v := range AcademicYears {
		if y == v {
			return true
		}
	}
	return false
}

// VoteType is the direction of a vote on a material.
type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// Valid reports whether t is "upvote" or "downvote".
func (t VoteType) Valid() bool {
	return t == VoteUp || t == VoteDown
}

// Uploader is the denormalized weak reference to the user who shared a material.
type Uploader struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Material represents a shared study document with its vote counts and reports.
// This is a pure domain model with no database-specific dependencies or tags.
//
// Voted holds the ids of every user who has voted; each id appears at most once
// and len(Voted) always equals Upvotes + Downvotes. Voted and Reports are only
// hydrated by lookups of a single material; list results carry the counts alone.
type Material struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    Category     `json:"category"`
	Year        AcademicYear `json:"year"`
	FileKey     string       `json:"file_key"`
	FileName    string       `json:"file_name"`
	Uploader    Uploader     `json:"uploaded_by"`
	Upvotes     int          `json:"upvotes"`
	Downvotes   int          `json:"downvotes"`
	Voted       []string     `json:"voted,omitempty"`
	Reports     []Report     `json:"reports,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// HasVoted reports whether userID is already in the voted set.
func (m *Material) HasVoted(userID string) bool {
	for _, id := range m.Voted {
		if id == userID {
			return true
		}
	}
	return false
}
