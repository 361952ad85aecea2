package notification

import "context"

// Store defines the contract for persisting notification aggregates.
// Implementations live in infra/store/.
type Store interface {
	// CreateWithAttempts inserts a notification and its channel attempts in
	// one transaction. Either everything is persisted or nothing is.
	CreateWithAttempts(ctx context.Context, n *Notification, attempts []ChannelAttempt) error

	// SaveAttempts updates or inserts channel attempts for an existing
	// notification in one transaction. An attempt replaces the existing row
	// for its (notification, channel) pair when one exists.
	SaveAttempts(ctx context.Context, notificationID string, attempts []ChannelAttempt) error

	// GetByID retrieves a notification with its attempts and pre-order
	// loaded. Returns nil, nil if no record is found.
	GetByID(ctx context.Context, id string) (*Notification, error)

	// ListByPreOrder retrieves notifications for a pre-order, newest first,
	// with attempts loaded, plus the total row count for pagination.
	ListByPreOrder(ctx context.Context, preOrderID string, offset, limit int) ([]*Notification, int64, error)

	// ReconcileAttempt applies a provider delivery callback to the attempt
	// matching (channel, providerMessageID). A transition to sent stamps
	// sent_at and clears the error; a transition to failed records errText.
	// Returns false when no matching attempt exists.
	ReconcileAttempt(ctx context.Context, channel Channel, providerMessageID string, status Status, errText string) (bool, error)
}
