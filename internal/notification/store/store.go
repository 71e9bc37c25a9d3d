// Package store persists notifications. CreateBatch is all-or-nothing so a
// failed fan-out can be retried without leaving half a broadcast behind.
package store

import (
	"context"
	"errors"

	"hemolink/internal/notification"
	"hemolink/pkg/domain"
)

// ErrNotFound keeps storage-specific 404s consistent across the in-memory
// and PostgreSQL implementations.
var ErrNotFound = errors.New("notification not found")

// Store is the full notification persistence surface. Consumers depend on
// the slices they need; this union exists for wiring.
type Store interface {
	Create(ctx context.Context, n notification.Notification) error
	CreateBatch(ctx context.Context, batch []notification.Notification) error
	MarkResponded(ctx context.Context, requestID domain.RequestID, userID domain.UserID) error
	DeleteByRequestAndUser(ctx context.Context, requestID domain.RequestID, userID domain.UserID) error
	DeleteByRequest(ctx context.Context, requestID domain.RequestID) error
	PromptRecipients(ctx context.Context, requestID domain.RequestID) ([]domain.UserID, error)
	ListByUser(ctx context.Context, userID domain.UserID) ([]notification.Notification, error)
}
