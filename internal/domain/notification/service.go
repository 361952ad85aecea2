package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"solarnotify/internal/common"
	"solarnotify/internal/domain/preorder"
)

// Service orchestrates notification business logic: validate → resolve →
// dispatch each requested channel inline → persist the aggregate and its
// channel attempts in one transaction. Channel-level failures are data, not
// errors; only resolution and persistence failures abort a call.
type Service struct {
	store       Store
	preOrders   preorder.Reader
	resolver    TemplateResolver
	emailBody   EmailBodyRenderer
	senders     map[Channel]Sender
	rateLimiter RecipientRateLimiter
}

// NewService creates a new notification service.
func NewService(
	store Store,
	preOrders preorder.Reader,
	resolver TemplateResolver,
	emailBody EmailBodyRenderer,
	rateLimiter RecipientRateLimiter,
	senders ...Sender,
) *Service {
	sm := make(map[Channel]Sender, len(senders))
	for _, s := range senders {
		sm[s.Channel()] = s
	}
	return &Service{
		store:       store,
		preOrders:   preOrders,
		resolver:    resolver,
		emailBody:   emailBody,
		senders:     sm,
		rateLimiter: rateLimiter,
	}
}

// Send validates the request, resolves both channel bodies once, dispatches
// every requested channel, and persists the notification plus one channel
// attempt per channel atomically. adminID is the authenticated acting admin
// and must never be defaulted.
func (s *Service) Send(ctx context.Context, preOrderID string, req *SendRequest, adminID string) (*SendResult, error) {
	if adminID == "" {
		return nil, common.NewUnauthorizedError("acting admin identity is required")
	}

	po, err := s.preOrders.GetByID(ctx, preOrderID)
	if err != nil {
		return nil, fmt.Errorf("fetching pre-order: %w", err)
	}
	if po == nil {
		return nil, common.NewNotFoundError("customer pre-order", preOrderID)
	}

	if errs := s.Validate(po, req); len(errs) > 0 {
		return nil, common.NewValidationErrors(errs)
	}

	// Per-recipient rate limit. Fail open: a limiter outage must not block
	// admin-triggered notifications.
	if s.rateLimiter != nil {
		recipient := po.CustomerEmail
		if recipient == "" {
			recipient = po.CustomerPhone
		}
		allowed, err := s.rateLimiter.Allow(ctx, recipient)
		if err != nil {
			slog.Error("recipient rate limit check failed, proceeding", "recipient", recipient, "error", err)
		} else if !allowed {
			return nil, common.NewValidationError(fmt.Sprintf("notification rate limit exceeded for recipient: %s", recipient))
		}
	}

	resolved := s.resolver.Resolve(req.Message, TagContext{
		PreOrder:          po,
		FulfillmentMethod: req.FulfillmentMethod,
		PaymentDeadline:   req.PaymentDeadline,
		Reason:            req.Reason,
		ReadyDate:         req.ReadyDate,
		PickupLocation:    req.PickupLocation,
		ShippingAddress:   req.ShippingAddress,
		City:              req.City,
		State:             req.State,
	})

	n := &Notification{
		CustomerPreOrderID:   po.ID,
		Mode:                 req.Mode,
		Channels:             req.Channels,
		Subject:              req.Subject,
		MessageTemplate:      req.Message,
		MessageResolvedEmail: resolved.Email,
		MessageResolvedSMS:   resolved.SMS,
		PaymentDeadline:      req.PaymentDeadline,
		Reason:               req.Reason,
		ReadyDate:            req.ReadyDate,
		FulfillmentMethod:    req.FulfillmentMethod,
		PickupLocation:       req.PickupLocation,
		ShippingAddress:      req.ShippingAddress,
		City:                 req.City,
		State:                req.State,
		CreatedByAdminID:     adminID,
	}

	attempts := make([]ChannelAttempt, 0, len(req.Channels))
	results := make([]ChannelResult, 0, len(req.Channels))
	for _, ch := range req.Channels {
		outcome := s.dispatch(ctx, ch, po, n)
		attempts = append(attempts, attemptFromOutcome(ch, outcome))
		results = append(results, ChannelResult{
			Channel:           ch,
			Status:            outcome.Status,
			ProviderMessageID: outcome.ProviderMessageID,
			Error:             outcome.Error,
		})
	}

	if err := s.store.CreateWithAttempts(ctx, n, attempts); err != nil {
		return nil, fmt.Errorf("persisting notification: %w", err)
	}

	slog.Info("notification sent",
		"notification_id", n.ID,
		"customer_preorder_id", po.ID,
		"mode", req.Mode,
		"channels", req.Channels,
		"admin_id", adminID,
	)

	return &SendResult{
		NotificationID:     n.ID,
		CustomerPreOrderID: po.ID,
		Mode:               req.Mode,
		Channels:           results,
		CreatedAt:          n.CreatedAt,
	}, nil
}

// Resend re-dispatches a notification using the bodies resolved at creation.
// Templates are never re-resolved, even if the pre-order has changed since.
// Channels defaults to the originally requested set. Existing channel
// attempts are updated in place; channels not part of the original send get
// a new attempt row.
func (s *Service) Resend(ctx context.Context, notificationID string, channels []Channel) (*ResendResult, error) {
	n, err := s.store.GetByID(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("fetching notification: %w", err)
	}
	if n == nil {
		return nil, common.NewNotFoundError("notification", notificationID)
	}
	if n.CustomerPreOrder == nil {
		return nil, fmt.Errorf("notification %s has no customer pre-order loaded", notificationID)
	}

	if len(channels) == 0 {
		channels = n.Channels
	}

	attempts := make([]ChannelAttempt, 0, len(channels))
	results := make([]ChannelResult, 0, len(channels))
	for _, ch := range channels {
		outcome := s.dispatch(ctx, ch, n.CustomerPreOrder, n)
		attempts = append(attempts, attemptFromOutcome(ch, outcome))
		results = append(results, ChannelResult{
			Channel:           ch,
			Status:            outcome.Status,
			ProviderMessageID: outcome.ProviderMessageID,
			Error:             outcome.Error,
		})
	}

	if err := s.store.SaveAttempts(ctx, n.ID, attempts); err != nil {
		return nil, fmt.Errorf("persisting channel attempts: %w", err)
	}

	slog.Info("notification resent",
		"notification_id", n.ID,
		"channels", channels,
	)

	return &ResendResult{
		NotificationID: n.ID,
		Channels:       results,
		ResentAt:       time.Now().UTC(),
	}, nil
}

// dispatch sends the stored resolved body for one channel. Every failure is
// converted to a failed Outcome; nothing thrown here may abort the caller's
// transaction.
func (s *Service) dispatch(ctx context.Context, ch Channel, po *preorder.CustomerPreOrder, n *Notification) Outcome {
	switch ch {
	case ChannelEmail:
		if po.CustomerEmail == "" {
			return failedOutcome(ch, po.ID, "customer email not available")
		}
		html, err := s.emailBody.Render(emailContext(po, n))
		if err != nil {
			return failedOutcome(ch, po.ID, fmt.Sprintf("rendering email body: %s", err.Error()))
		}
		sender, ok := s.senders[ch]
		if !ok {
			return failedOutcome(ch, po.ID, "email sender not configured")
		}
		return sender.Send(ctx, &Message{To: po.CustomerEmail, Subject: n.Subject, Body: html})

	case ChannelSMS:
		if po.CustomerPhone == "" {
			return failedOutcome(ch, po.ID, "customer phone not available")
		}
		sender, ok := s.senders[ch]
		if !ok {
			return failedOutcome(ch, po.ID, "sms sender not configured")
		}
		return sender.Send(ctx, &Message{To: po.CustomerPhone, Body: n.MessageResolvedSMS})

	default:
		return failedOutcome(ch, po.ID, fmt.Sprintf("unsupported channel: %s", ch))
	}
}

func emailContext(po *preorder.CustomerPreOrder, n *Notification) EmailContext {
	productName := ""
	if po.PreOrder != nil {
		productName = po.PreOrder.ProductName
	}
	return EmailContext{
		Subject:         n.Subject,
		Mode:            n.Mode,
		CustomerName:    po.FullName(),
		Body:            n.MessageResolvedEmail,
		OrderNumber:     po.PreOrderNumber,
		ProductName:     productName,
		Quantity:        po.Quantity,
		RemainingAmount: po.RemainingAmount,
		Currency:        po.Currency,
		ShowBalance:     n.Mode == ModeBalance && po.RemainingAmount > 0,
	}
}

func failedOutcome(ch Channel, preOrderID, errMsg string) Outcome {
	slog.Error("channel delivery failed",
		"channel", ch,
		"customer_preorder_id", preOrderID,
		"error", errMsg,
	)
	return Outcome{Status: StatusFailed, Error: errMsg}
}

func attemptFromOutcome(ch Channel, outcome Outcome) ChannelAttempt {
	a := ChannelAttempt{
		Channel:           ch,
		Status:            outcome.Status,
		ProviderMessageID: outcome.ProviderMessageID,
		Error:             outcome.Error,
	}
	if outcome.Status == StatusSent {
		now := time.Now().UTC()
		a.SentAt = &now
	}
	return a
}

// Validate applies the mode, fulfillment, and destination business rules.
// It returns every violation so the admin UI can show them all at once; an
// empty slice means the request may proceed.
func (s *Service) Validate(po *preorder.CustomerPreOrder, req *SendRequest) []string {
	var errs []string

	if req.Mode == ModeBalance {
		if po.RemainingAmount <= 0 {
			errs = append(errs, "No remaining balance to collect for this pre-order")
		}
		if req.PaymentDeadline == "" {
			errs = append(errs, "Payment deadline is required for balance mode")
		} else if deadline, err := time.Parse("2006-01-02", req.PaymentDeadline); err != nil || !deadline.After(time.Now()) {
			errs = append(errs, "Payment deadline must be a future date")
		}
		if req.Reason == "" {
			errs = append(errs, "Reason is required for balance mode")
		}
	}

	if req.Mode == ModeReady {
		if !po.IsFullyPaid() && !req.OverridePaymentCheck {
			errs = append(errs, "Pre-order must be fully paid before marking as ready")
		}
		if req.ReadyDate == "" {
			errs = append(errs, "Ready date is required for ready mode")
		}
	}

	if req.FulfillmentMethod == FulfillmentPickup && req.Mode == ModeReady {
		if req.PickupLocation == "" && po.PickupLocation == "" {
			errs = append(errs, "Pickup location is required for pickup fulfillment")
		}
	}

	if req.FulfillmentMethod == FulfillmentDelivery && req.Mode == ModeReady {
		if req.ShippingAddress == "" && po.ShippingAddress == "" {
			errs = append(errs, "Shipping address is required for delivery fulfillment")
		}
		if req.City == "" && po.City == "" {
			errs = append(errs, "City is required for delivery fulfillment")
		}
		if req.State == "" && po.State == "" {
			errs = append(errs, "State is required for delivery fulfillment")
		}
	}

	for _, ch := range req.Channels {
		if ch == ChannelEmail && po.CustomerEmail == "" {
			errs = append(errs, "Customer email not available for email notifications")
		}
		if ch == ChannelSMS && po.CustomerPhone == "" {
			errs = append(errs, "Customer phone not available for SMS notifications")
		}
	}

	return errs
}

// Get retrieves a notification with attempts and pre-order loaded.
func (s *Service) Get(ctx context.Context, id string) (*Notification, error) {
	n, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching notification: %w", err)
	}
	if n == nil {
		return nil, common.NewNotFoundError("notification", id)
	}
	return n, nil
}

// List retrieves a page of notification summaries for a pre-order.
func (s *Service) List(ctx context.Context, preOrderID string, filter ListFilter) (*ListResponse, error) {
	po, err := s.preOrders.GetByID(ctx, preOrderID)
	if err != nil {
		return nil, fmt.Errorf("fetching pre-order: %w", err)
	}
	if po == nil {
		return nil, common.NewNotFoundError("customer pre-order", preOrderID)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = 15
	}
	if filter.PerPage > 50 {
		filter.PerPage = 50
	}

	offset := (filter.Page - 1) * filter.PerPage
	notifications, total, err := s.store.ListByPreOrder(ctx, preOrderID, offset, filter.PerPage)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	summaries := make([]Summary, len(notifications))
	for i, n := range notifications {
		channels := make([]ChannelSummary, len(n.Attempts))
		for j, a := range n.Attempts {
			channels[j] = ChannelSummary{
				Channel: a.Channel,
				Status:  a.Status,
				SentAt:  a.SentAt,
				Error:   a.Error,
			}
		}
		summaries[i] = Summary{
			ID:        n.ID,
			Mode:      n.Mode,
			Subject:   n.Subject,
			Channels:  channels,
			CreatedBy: n.CreatedByAdminID,
			CreatedAt: n.CreatedAt,
		}
	}

	lastPage := int((total + int64(filter.PerPage) - 1) / int64(filter.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}

	return &ListResponse{
		Notifications: summaries,
		Pagination: Pagination{
			CurrentPage: filter.Page,
			PerPage:     filter.PerPage,
			Total:       total,
			LastPage:    lastPage,
		},
	}, nil
}

// MergeTags returns the supported merge-tag catalog for admin UI help text.
func (s *Service) MergeTags() []TagDoc {
	return s.resolver.Tags()
}
