package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"solarnotify/internal/domain/preorder"
)

// Channel represents a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Mode is the notification's purpose.
type Mode string

const (
	ModeReady   Mode = "ready"   // item available for pickup/delivery
	ModeBalance Mode = "balance" // outstanding payment due
)

// Fulfillment determines which address-shaped fields are required.
type Fulfillment string

const (
	FulfillmentPickup   Fulfillment = "pickup"
	FulfillmentDelivery Fulfillment = "delivery"
)

// Status is the delivery status of one channel attempt.
type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Notification is the persisted aggregate for one admin-triggered send.
// Resolved bodies are computed once at creation and never change; resend
// reuses them so the audit trail cannot drift.
type Notification struct {
	ID                   string      `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerPreOrderID   string      `gorm:"type:uuid;not null;index;column:customer_preorder_id" json:"customer_preorder_id"`
	Mode                 Mode        `gorm:"type:varchar(10);not null" json:"mode"`
	Channels             []Channel   `gorm:"serializer:json" json:"channels"`
	Subject              string      `gorm:"not null" json:"subject"`
	MessageTemplate      string      `gorm:"type:text;not null" json:"message_template"`
	MessageResolvedEmail string      `gorm:"type:text" json:"message_resolved_email"`
	MessageResolvedSMS   string      `gorm:"type:text;column:message_resolved_sms" json:"message_resolved_sms"`
	PaymentDeadline      string      `gorm:"type:varchar(10)" json:"payment_deadline,omitempty"`
	Reason               string      `gorm:"type:text" json:"reason,omitempty"`
	ReadyDate            string      `gorm:"type:varchar(10)" json:"ready_date,omitempty"`
	FulfillmentMethod    Fulfillment `gorm:"type:varchar(10);not null" json:"fulfillment_method"`
	PickupLocation       string      `gorm:"type:text" json:"pickup_location,omitempty"`
	ShippingAddress      string      `gorm:"type:text" json:"shipping_address,omitempty"`
	City                 string      `json:"city,omitempty"`
	State                string      `json:"state,omitempty"`
	CreatedByAdminID     string      `gorm:"not null" json:"created_by_admin_id"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`

	CustomerPreOrder *preorder.CustomerPreOrder `gorm:"foreignKey:CustomerPreOrderID" json:"customer_pre_order,omitempty"`
	Attempts         []ChannelAttempt           `gorm:"foreignKey:NotificationID;constraint:OnDelete:CASCADE" json:"attempts,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

// ChannelAttempt records one channel's dispatch outcome for one notification.
// At most one row exists per (notification, channel); resend updates in place.
// Rows are never deleted — they form the delivery audit trail.
type ChannelAttempt struct {
	ID                string     `gorm:"type:uuid;primaryKey" json:"id"`
	NotificationID    string     `gorm:"type:uuid;not null;uniqueIndex:idx_notification_channel" json:"notification_id"`
	Channel           Channel    `gorm:"type:varchar(10);not null;uniqueIndex:idx_notification_channel" json:"channel"`
	Status            Status     `gorm:"type:varchar(10);not null;default:'queued'" json:"status"`
	ProviderMessageID string     `gorm:"index" json:"provider_message_id,omitempty"`
	Error             string     `gorm:"type:text" json:"error,omitempty"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName keeps the channel audit rows under their original table name.
func (ChannelAttempt) TableName() string {
	return "notification_channels"
}

func (a *ChannelAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// SendRequest is the API payload for sending a notification to a pre-order.
type SendRequest struct {
	Mode                 Mode        `json:"mode" binding:"required,oneof=ready balance"`
	Channels             []Channel   `json:"channels" binding:"required,min=1,dive,oneof=email sms"`
	Subject              string      `json:"subject" binding:"required,max=255"`
	Message              string      `json:"message" binding:"required"`
	FulfillmentMethod    Fulfillment `json:"fulfillment_method" binding:"required,oneof=pickup delivery"`
	PaymentDeadline      string      `json:"payment_deadline" binding:"omitempty,datetime=2006-01-02"`
	Reason               string      `json:"reason" binding:"omitempty,max=500"`
	ReadyDate            string      `json:"ready_date" binding:"omitempty,datetime=2006-01-02"`
	OverridePaymentCheck bool        `json:"override_payment_check"`
	PickupLocation       string      `json:"pickup_location" binding:"omitempty,max=500"`
	ShippingAddress      string      `json:"shipping_address" binding:"omitempty,max=500"`
	City                 string      `json:"city" binding:"omitempty,max=100"`
	State                string      `json:"state" binding:"omitempty,max=100"`
}

// ResendRequest optionally narrows a resend to a subset of channels.
type ResendRequest struct {
	Channels []Channel `json:"channels" binding:"omitempty,min=1,dive,oneof=email sms"`
}

// ChannelResult is the per-channel outcome reported back to the caller.
type ChannelResult struct {
	Channel           Channel `json:"channel"`
	Status            Status  `json:"status"`
	ProviderMessageID string  `json:"provider_message_id,omitempty"`
	Error             string  `json:"error,omitempty"`
}

// SendResult is the aggregate response for a send call. Overall success means
// the aggregate was persisted; individual channels may still have failed.
type SendResult struct {
	NotificationID     string          `json:"notification_id"`
	CustomerPreOrderID string          `json:"customer_preorder_id"`
	Mode               Mode            `json:"mode"`
	Channels           []ChannelResult `json:"channels"`
	CreatedAt          time.Time       `json:"created_at"`
}

// ResendResult is the response for a resend call.
type ResendResult struct {
	NotificationID string          `json:"notification_id"`
	Channels       []ChannelResult `json:"channels"`
	ResentAt       time.Time       `json:"resent_at"`
}

// ListFilter defines pagination for listing a pre-order's notifications.
type ListFilter struct {
	Page    int `form:"page"`
	PerPage int `form:"per_page"`
}

// ChannelSummary is the nested channel status in list responses.
type ChannelSummary struct {
	Channel Channel    `json:"channel"`
	Status  Status     `json:"status"`
	SentAt  *time.Time `json:"sent_at,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Summary is one row of the notification list for a pre-order.
type Summary struct {
	ID        string           `json:"id"`
	Mode      Mode             `json:"mode"`
	Subject   string           `json:"subject"`
	Channels  []ChannelSummary `json:"channels"`
	CreatedBy string           `json:"created_by"`
	CreatedAt time.Time        `json:"created_at"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

// ListResponse wraps a paginated list of notification summaries.
type ListResponse struct {
	Notifications []Summary  `json:"notifications"`
	Pagination    Pagination `json:"pagination"`
}
