package template

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"solarnotify/internal/domain/notification"
)

var _ notification.TemplateResolver = (*MergeTagResolver)(nil)

// MergeTagResolver substitutes the fixed merge-tag vocabulary in an
// admin-authored template. Templates are plain text and are never evaluated;
// unknown tags pass through as literal text.
type MergeTagResolver struct {
	brandName string
	printer   *message.Printer
}

// NewMergeTagResolver creates a resolver for the given brand and currency
// locale (BCP 47, e.g. "en-NG").
func NewMergeTagResolver(brandName, currencyLocale string) *MergeTagResolver {
	tag, err := language.Parse(currencyLocale)
	if err != nil {
		tag = language.English
	}
	return &MergeTagResolver{
		brandName: brandName,
		printer:   message.NewPrinter(tag),
	}
}

// Resolve produces the per-channel resolved bodies. Email and SMS resolution
// are identical at the tag level; SMS length/charset constraints belong to
// the SMS sender so format changes for one channel never affect the other.
func (r *MergeTagResolver) Resolve(tmpl string, tc notification.TagContext) notification.ResolvedBodies {
	pairs := r.mergeTags(tc)
	return notification.ResolvedBodies{
		Email: r.resolveOne(tmpl, pairs),
		SMS:   r.resolveOne(tmpl, pairs),
	}
}

func (r *MergeTagResolver) resolveOne(tmpl string, pairs []string) string {
	resolved := strings.NewReplacer(pairs...).Replace(tmpl)

	// Payment-related templates always carry the payment instruction. The
	// substring check keeps the append idempotent across reprocessing.
	if strings.Contains(tmpl, "{{payment_deadline}}") || strings.Contains(tmpl, "{{reason}}") {
		marker := "log in to your " + r.brandName + " app"
		if !strings.Contains(resolved, marker) {
			resolved += "\n\nPlease log in to your " + r.brandName + " app/account to complete your payment."
		}
	}

	return resolved
}

// mergeTags builds the tag/value replacement list from the pre-order and the
// per-request fields. Request-supplied values win over stored defaults;
// unresolved optional fields render as "-".
func (r *MergeTagResolver) mergeTags(tc notification.TagContext) []string {
	po := tc.PreOrder

	productName := "-"
	if po.PreOrder != nil && po.PreOrder.ProductName != "" {
		productName = po.PreOrder.ProductName
	}

	return []string{
		"{{customer_name}}", po.FullName(),
		"{{product_name}}", productName,
		"{{pre_order_number}}", po.PreOrderNumber,
		"{{quantity}}", strconv.Itoa(po.Quantity),
		"{{remaining_amount}}", r.FormatAmount(po.RemainingAmount, po.Currency),
		"{{currency}}", po.Currency,
		"{{payment_deadline}}", orDash(tc.PaymentDeadline),
		"{{reason}}", orDash(tc.Reason),
		"{{fulfillment_method}}", string(tc.FulfillmentMethod),
		"{{pickup_location}}", firstNonEmpty(tc.PickupLocation, po.PickupLocation),
		"{{shipping_address}}", firstNonEmpty(tc.ShippingAddress, po.ShippingAddress),
		"{{shipping_city}}", firstNonEmpty(tc.City, po.City),
		"{{shipping_state}}", firstNonEmpty(tc.State, po.State),
		"{{ready_date}}", orDash(tc.ReadyDate),
	}
}

// FormatAmount renders a currency amount with locale grouping, exactly two
// decimal places, and the currency code annotation.
func (r *MergeTagResolver) FormatAmount(amount float64, currencyCode string) string {
	return r.printer.Sprintf("%s %v", currencyCode,
		number.Decimal(amount, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Tags lists the supported merge tags for the admin UI documentation.
func (r *MergeTagResolver) Tags() []notification.TagDoc {
	return []notification.TagDoc{
		{Tag: "{{customer_name}}", Description: "Customer first and last name"},
		{Tag: "{{product_name}}", Description: "Pre-order product name"},
		{Tag: "{{pre_order_number}}", Description: "Pre-order number"},
		{Tag: "{{quantity}}", Description: "Order quantity"},
		{Tag: "{{remaining_amount}}", Description: "Formatted remaining balance"},
		{Tag: "{{currency}}", Description: "Currency code (e.g., NGN)"},
		{Tag: "{{payment_deadline}}", Description: "Payment deadline (balance mode)"},
		{Tag: "{{reason}}", Description: "Reason for balance request (balance mode)"},
		{Tag: "{{fulfillment_method}}", Description: "pickup or delivery"},
		{Tag: "{{pickup_location}}", Description: "Pickup location (pickup mode)"},
		{Tag: "{{shipping_address}}", Description: "Shipping address (delivery mode)"},
		{Tag: "{{shipping_city}}", Description: "Shipping city (delivery mode)"},
		{Tag: "{{shipping_state}}", Description: "Shipping state (delivery mode)"},
		{Tag: "{{ready_date}}", Description: "Ready date (ready mode)"},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "-"
}
