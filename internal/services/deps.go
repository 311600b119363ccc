package services

import (
	"context"

	userpb "github.com/wersvet/user-service/proto/user"
)

// UserDirectory resolves user ids through the user-service.
type UserDirectory interface {
	GetUser(ctx context.Context, userID int) (*userpb.GetUserResponse, error)
	BulkUsers(ctx context.Context, ids []int) ([]*userpb.GetUserResponse, error)
}

// Notifier delivers best-effort notices to users. Implementations must not
// block the caller; delivery failures are swallowed.
type Notifier interface {
	Emit(eventType string, fromUserID, toUserID int, message string)
}
