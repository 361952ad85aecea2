package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"solarnotify/internal/domain/notification"
)

var _ notification.Sender = (*TermiiSender)(nil)

// gsmReplacer maps common non-GSM punctuation to GSM-7-safe equivalents so
// messages don't silently switch to the UCS-2 encoding at the provider.
var gsmReplacer = strings.NewReplacer(
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...", // ellipsis
)

// TermiiSender sends SMS messages through a Termii-compatible HTTP API.
type TermiiSender struct {
	apiKey      string
	senderID    string
	baseURL     string
	countryCode string
	maxLength   int
	httpClient  *http.Client
}

// NewTermiiSender creates a new SMS sender. countryCode is the international
// prefix domestic numbers are rewritten to (e.g. "234"); maxLength is the
// concatenated-SMS character budget.
func NewTermiiSender(apiKey, senderID, baseURL, countryCode string, maxLength int) *TermiiSender {
	if baseURL == "" {
		baseURL = "https://api.ng.termii.com"
	}
	if countryCode == "" {
		countryCode = "234"
	}
	if maxLength <= 0 {
		maxLength = 480
	}
	return &TermiiSender{
		apiKey:      apiKey,
		senderID:    senderID,
		baseURL:     strings.TrimRight(baseURL, "/"),
		countryCode: countryCode,
		maxLength:   maxLength,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Channel returns the SMS channel identifier.
func (s *TermiiSender) Channel() notification.Channel {
	return notification.ChannelSMS
}

// Send normalizes the destination, optimizes the body for the GSM charset
// and length budget, and posts it to the provider. All failures come back
// as a failed Outcome; nothing escapes as an error.
func (s *TermiiSender) Send(ctx context.Context, msg *notification.Message) notification.Outcome {
	to := NormalizePhone(msg.To, s.countryCode)
	body := OptimizeMessage(msg.Body, s.maxLength)

	payload := map[string]any{
		"to":      to,
		"from":    s.senderID,
		"sms":     body,
		"type":    "plain",
		"channel": "generic",
		"api_key": s.apiKey,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return s.failed(msg.To, "marshaling sms payload: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/sms/send", bytes.NewBuffer(jsonData))
	if err != nil {
		return s.failed(msg.To, "creating request: "+err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return s.failed(msg.To, "executing request: "+err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max
	if err != nil {
		return s.failed(msg.To, "reading response: "+err.Error())
	}

	var parsed struct {
		MessageID string `json:"message_id"`
		Message   string `json:"message"`
	}
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 400 && parsed.MessageID != "" {
		slog.Info("sms sent",
			"to", msg.To,
			"normalized_to", to,
			"provider_message_id", parsed.MessageID,
		)
		return notification.Outcome{
			Status:            notification.StatusSent,
			ProviderMessageID: parsed.MessageID,
		}
	}

	errMsg := parsed.Message
	if errMsg == "" {
		errMsg = "unknown error from SMS provider"
	}
	return s.failed(msg.To, errMsg)
}

func (s *TermiiSender) failed(to, errMsg string) notification.Outcome {
	slog.Error("sms sending failed", "to", to, "error", errMsg)
	return notification.Outcome{Status: notification.StatusFailed, Error: errMsg}
}

// NormalizePhone rewrites a phone number to international format without the
// leading plus: the domestic trunk prefix "0" becomes the country code,
// numbers already starting with the country code pass through, and anything
// else is assumed domestic and prefixed.
func NormalizePhone(raw, countryCode string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '+', '-', '(', ')':
			return -1
		}
		return r
	}, raw)

	switch {
	case strings.HasPrefix(clean, "0"):
		return countryCode + clean[1:]
	case strings.HasPrefix(clean, countryCode):
		return clean
	default:
		return countryCode + clean
	}
}

// OptimizeMessage maps non-GSM punctuation to GSM-7-safe characters and
// truncates to maxLength, replacing the tail with an ellipsis when needed.
func OptimizeMessage(msg string, maxLength int) string {
	optimized := gsmReplacer.Replace(msg)

	runes := []rune(optimized)
	if len(runes) > maxLength {
		optimized = string(runes[:maxLength-3]) + "..."
	}
	return optimized
}
