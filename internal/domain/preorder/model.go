package preorder

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment status values for a customer pre-order.
const (
	PaymentPending     = "pending"
	PaymentDepositPaid = "deposit_paid"
	PaymentFullyPaid   = "fully_paid"
)

// PreOrder is the campaign a customer order was placed against. It carries
// the product details referenced by notification merge tags.
type PreOrder struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	ProductName string    `gorm:"not null" json:"product_name"`
	UnitPrice   float64   `gorm:"type:decimal(12,2)" json:"unit_price"`
	Currency    string    `gorm:"type:varchar(3)" json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *PreOrder) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// CustomerPreOrder is one customer's order under a pre-order campaign.
// The notification core only reads it; order/payment state transitions are
// owned by the checkout flows.
type CustomerPreOrder struct {
	ID                string     `gorm:"type:uuid;primaryKey" json:"id"`
	PreOrderNumber    string     `gorm:"uniqueIndex;not null" json:"pre_order_number"`
	PreOrderID        string     `gorm:"type:uuid;index" json:"pre_order_id"`
	CustomerEmail     string     `json:"customer_email"`
	CustomerPhone     string     `json:"customer_phone"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Quantity          int        `gorm:"default:1" json:"quantity"`
	UnitPrice         float64    `gorm:"type:decimal(12,2)" json:"unit_price"`
	DepositAmount     float64    `gorm:"type:decimal(12,2)" json:"deposit_amount"`
	RemainingAmount   float64    `gorm:"type:decimal(12,2)" json:"remaining_amount"`
	TotalAmount       float64    `gorm:"type:decimal(12,2)" json:"total_amount"`
	Currency          string     `gorm:"type:varchar(3)" json:"currency"`
	Status            string     `gorm:"type:varchar(30)" json:"status"`
	PaymentStatus     string     `gorm:"type:varchar(30)" json:"payment_status"`
	FulfillmentMethod string     `gorm:"type:varchar(10)" json:"fulfillment_method"`
	ShippingAddress   string     `json:"shipping_address"`
	City              string     `json:"city"`
	State             string     `json:"state"`
	PickupLocation    string     `json:"pickup_location"`
	DepositPaidAt     *time.Time `json:"deposit_paid_at,omitempty"`
	FullyPaidAt       *time.Time `json:"fully_paid_at,omitempty"`
	ReadyAt           *time.Time `json:"ready_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	PreOrder *PreOrder `gorm:"foreignKey:PreOrderID" json:"pre_order,omitempty"`
}

func (c *CustomerPreOrder) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.PreOrderNumber == "" {
		c.PreOrderNumber = "PRE-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	}
	return nil
}

// FullName joins the customer's first and last name.
func (c *CustomerPreOrder) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// IsFullyPaid reports whether the order balance has been settled.
func (c *CustomerPreOrder) IsFullyPaid() bool {
	return c.PaymentStatus == PaymentFullyPaid
}

// IsDepositPaid reports whether at least the deposit has been paid.
func (c *CustomerPreOrder) IsDepositPaid() bool {
	return c.PaymentStatus == PaymentDepositPaid || c.PaymentStatus == PaymentFullyPaid
}
