package notification

import (
	"context"

	"solarnotify/internal/domain/preorder"
)

// Message is a rendered, channel-ready payload.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Outcome is the normalized result of one channel dispatch. Senders never
// return errors past their boundary; failures become a failed Outcome.
type Outcome struct {
	Status            Status
	ProviderMessageID string
	Error             string
}

// Sender delivers a message over one channel.
// Implementations live in infra/ (SMTP for email, Termii for SMS).
type Sender interface {
	Send(ctx context.Context, msg *Message) Outcome

	// Channel returns which delivery channel this sender handles.
	Channel() Channel
}

// TagContext carries everything merge-tag resolution may reference: the
// loaded pre-order plus the per-request mode/method fields. Request-supplied
// values take precedence over the pre-order's stored defaults.
type TagContext struct {
	PreOrder          *preorder.CustomerPreOrder
	FulfillmentMethod Fulfillment
	PaymentDeadline   string
	Reason            string
	ReadyDate         string
	PickupLocation    string
	ShippingAddress   string
	City              string
	State             string
}

// ResolvedBodies holds the per-channel resolved message texts.
type ResolvedBodies struct {
	Email string
	SMS   string
}

// TagDoc documents one supported merge tag for the admin UI.
type TagDoc struct {
	Tag         string `json:"tag"`
	Description string `json:"description"`
}

// TemplateResolver substitutes merge tags in an admin-authored template.
// Resolution never fails: unknown tags pass through as literal text.
// Implementations live in infra/template/.
type TemplateResolver interface {
	Resolve(template string, tc TagContext) ResolvedBodies

	// Tags lists the supported merge tags for documentation.
	Tags() []TagDoc
}

// EmailContext is the typed input for the branded HTML email body.
type EmailContext struct {
	Subject         string
	Mode            Mode
	CustomerName    string
	Body            string // resolved message text, plain
	OrderNumber     string
	ProductName     string
	Quantity        int
	RemainingAmount float64
	Currency        string
	ShowBalance     bool
}

// EmailBodyRenderer wraps a resolved message into a full HTML document.
// User-controlled fields must be escaped by the implementation.
type EmailBodyRenderer interface {
	Render(ec EmailContext) (string, error)
}
