package service

import "context"

// RewardNotifier is told when a user action may earn reward points. The accrual
// policy lives in an external rewards system, not here: implementations decide
// whether and how much to credit, and failures there must not fail the action.
type RewardNotifier interface {
	MaterialUploaded(ctx context.Context, uploaderID string)
	MaterialUpvoted(ctx context.Context, uploaderID string)
}

// NopRewards discards every notification. Used until a rewards backend is wired.
type NopRewards struct{}

func (NopRewards) MaterialUploaded(context.Context, string) {}
func (NopRewards) MaterialUpvoted(context.Context, string)  {}
