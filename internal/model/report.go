package model

import "time"

// ReportStatus is the moderation state of a report.
// Transitions (pending -> reviewed -> resolved) are driven by the external
// moderation workflow; this service only ever creates pending reports.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportReviewed ReportStatus = "reviewed"
	ReportResolved ReportStatus = "resolved"
)

// Report is a user-submitted flag asking moderators to review a material.
type Report struct {
	ID         string       `json:"id"`
	MaterialID string       `json:"material_id"`
	ReportedBy string       `json:"reported_by"`
	Reason     string       `json:"reason"`
	Status     ReportStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}
