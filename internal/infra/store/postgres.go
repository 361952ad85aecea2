package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"solarnotify/internal/domain/notification"
	"solarnotify/internal/domain/preorder"
)

var (
	_ notification.Store = (*PostgresStore)(nil)
	_ preorder.Reader    = (*PreOrderReader)(nil)
)

// PostgresStore persists notification aggregates and reads customer
// pre-orders from PostgreSQL via gorm.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore opens the database connection, configures the pool, and
// runs migrations for the tables this service owns.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("accessing database pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.AutoMigrate(
		&preorder.PreOrder{},
		&preorder.CustomerPreOrder{},
		&notification.Notification{},
		&notification.ChannelAttempt{},
	); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an existing gorm connection. Used by tests.
func NewPostgresStoreWithDB(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PreOrderReader reads customer pre-orders over the same connection pool.
type PreOrderReader struct {
	db *gorm.DB
}

// PreOrders returns the pre-order read view of this store.
func (s *PostgresStore) PreOrders() *PreOrderReader {
	return &PreOrderReader{db: s.db}
}

// GetByID loads a customer pre-order with its campaign. Returns nil, nil
// when the id does not exist.
func (r *PreOrderReader) GetByID(ctx context.Context, id string) (*preorder.CustomerPreOrder, error) {
	var po preorder.CustomerPreOrder
	err := r.db.WithContext(ctx).
		Preload("PreOrder").
		First(&po, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching customer pre-order: %w", err)
	}
	return &po, nil
}

// CreateWithAttempts inserts the notification and its channel attempts in a
// single transaction.
func (s *PostgresStore) CreateWithAttempts(ctx context.Context, n *notification.Notification, attempts []notification.ChannelAttempt) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(n).Error; err != nil {
			return fmt.Errorf("creating notification: %w", err)
		}
		for i := range attempts {
			attempts[i].NotificationID = n.ID
			if err := tx.Create(&attempts[i]).Error; err != nil {
				return fmt.Errorf("creating channel attempt: %w", err)
			}
		}
		return nil
	})
}

// SaveAttempts updates or inserts channel attempts for an existing
// notification. Each attempt replaces the row for its channel when one
// exists; rows are never deleted.
func (s *PostgresStore) SaveAttempts(ctx context.Context, notificationID string, attempts []notification.ChannelAttempt) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range attempts {
			a := attempts[i]
			a.NotificationID = notificationID

			var existing notification.ChannelAttempt
			err := tx.Where("notification_id = ? AND channel = ?", notificationID, a.Channel).
				First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&a).Error; err != nil {
					return fmt.Errorf("creating channel attempt: %w", err)
				}
			case err != nil:
				return fmt.Errorf("fetching channel attempt: %w", err)
			default:
				updates := map[string]any{
					"status":              a.Status,
					"provider_message_id": a.ProviderMessageID,
					"error":               a.Error,
					"sent_at":             a.SentAt,
				}
				if err := tx.Model(&existing).Updates(updates).Error; err != nil {
					return fmt.Errorf("updating channel attempt: %w", err)
				}
			}
		}
		return nil
	})
}

// GetByID loads a notification with its attempts and pre-order.
// Returns nil, nil when the id does not exist.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*notification.Notification, error) {
	var n notification.Notification
	err := s.db.WithContext(ctx).
		Preload("Attempts").
		Preload("CustomerPreOrder").
		Preload("CustomerPreOrder.PreOrder").
		First(&n, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching notification: %w", err)
	}
	return &n, nil
}

// ListByPreOrder returns a page of notifications for a pre-order, newest
// first, along with the total count.
func (s *PostgresStore) ListByPreOrder(ctx context.Context, preOrderID string, offset, limit int) ([]*notification.Notification, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("customer_preorder_id = ?", preOrderID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting notifications: %w", err)
	}

	var rows []*notification.Notification
	err := q.Preload("Attempts").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing notifications: %w", err)
	}
	return rows, total, nil
}

// ReconcileAttempt applies a provider delivery callback to the attempt
// matching (channel, providerMessageID). Returns false when no attempt
// carries that provider id.
func (s *PostgresStore) ReconcileAttempt(ctx context.Context, channel notification.Channel, providerMessageID string, status notification.Status, errText string) (bool, error) {
	var attempt notification.ChannelAttempt
	err := s.db.WithContext(ctx).
		Where("channel = ? AND provider_message_id = ?", channel, providerMessageID).
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetching channel attempt: %w", err)
	}

	updates := map[string]any{"status": status}
	switch status {
	case notification.StatusSent:
		now := time.Now().UTC()
		updates["sent_at"] = &now
		updates["error"] = ""
	case notification.StatusFailed:
		updates["error"] = errText
	}

	if err := s.db.WithContext(ctx).Model(&attempt).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("updating channel attempt: %w", err)
	}
	return true, nil
}
