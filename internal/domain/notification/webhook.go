package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// emailStatusMap maps email provider delivery statuses to the internal
// tri-state. Unrecognized statuses stay queued, the conservative default.
var emailStatusMap = map[string]Status{
	"delivered": StatusSent,
	"processed": StatusSent,
	"opened":    StatusSent,
	"clicked":   StatusSent,
	"bounced":   StatusFailed,
	"dropped":   StatusFailed,
	"spam":      StatusFailed,
	"rejected":  StatusFailed,
	"deferred":  StatusQueued,
}

// smsStatusMap maps SMS provider delivery statuses to the internal tri-state.
// "unknown" is a terminal provider status, not an unrecognized one.
var smsStatusMap = map[string]Status{
	"delivered": StatusSent,
	"sent":      StatusSent,
	"failed":    StatusFailed,
	"rejected":  StatusFailed,
	"expired":   StatusFailed,
	"unknown":   StatusFailed,
	"submitted": StatusQueued,
	"accepted":  StatusQueued,
}

// MapProviderStatus translates a provider-specific status string into the
// internal tri-state for the given channel, case-insensitively.
func MapProviderStatus(channel Channel, providerStatus string) Status {
	key := strings.ToLower(providerStatus)
	var mapped Status
	var ok bool
	switch channel {
	case ChannelSMS:
		mapped, ok = smsStatusMap[key]
	default:
		mapped, ok = emailStatusMap[key]
	}
	if !ok {
		return StatusQueued
	}
	return mapped
}

// ReconcileDeliveryStatus applies an asynchronous provider callback to the
// channel attempt identified by (channel, providerMessageID). A miss is
// expected for test and retry callbacks: it is logged and discarded, never
// surfaced as an error.
func (s *Service) ReconcileDeliveryStatus(ctx context.Context, channel Channel, providerMessageID string, status Status, errText string) error {
	updated, err := s.store.ReconcileAttempt(ctx, channel, providerMessageID, status, errText)
	if err != nil {
		return fmt.Errorf("reconciling delivery status: %w", err)
	}

	if !updated {
		slog.Warn("no channel attempt found for delivery callback",
			"channel", channel,
			"provider_message_id", providerMessageID,
		)
		return nil
	}

	slog.Info("channel attempt status reconciled",
		"channel", channel,
		"provider_message_id", providerMessageID,
		"status", status,
	)
	return nil
}
