package follower_gate

import (
	"context"

	"instagram-bot/internal/accounts"

	"go.uber.org/zap"
)

// Checker decides whether an Instagram user follows the business account
// behind the given credentials. It is injected into the event processor so a
// real implementation can be supplied without touching routing logic.
type Checker interface {
	IsFollower(ctx context.Context, instagramUserID string, account accounts.Account) (bool, error)
}

// AlwaysFollower is a placeholder Checker that treats every user as a
// follower. The Graph API exposes no direct "does X follow Y" field; a real
// implementation would have to paginate the account's followers edge, which
// is too slow for per-comment checks. Until one exists, every commenter gets
// the configured reply rather than the follow-request message.
type AlwaysFollower struct {
	Logger *zap.Logger
}

func (a AlwaysFollower) IsFollower(ctx context.Context, instagramUserID string, account accounts.Account) (bool, error) {
	if a.Logger != nil {
		a.Logger.Debug("Follower check is a placeholder, assuming follower",
			zap.String("instagram_user_id", instagramUserID),
			zap.String("page_id", account.PageID))
	}
	return true, nil
}
