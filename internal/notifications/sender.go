package notifications

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

const androidChannelID = "uvent_notifications"

// FCMSender sends push notifications via Firebase Cloud Messaging.
// Nil-safe: when not configured, Multicast reports the batch as skipped.
type FCMSender struct {
	client *messaging.Client
	logger *slog.Logger
}

// NewFCMSender creates an FCM sender from a service account credentials file.
// Returns (nil, nil) if credentialsFile is empty (push disabled).
func NewFCMSender(ctx context.Context, credentialsFile string, logger *slog.Logger) (*FCMSender, error) {
	if credentialsFile == "" {
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return &FCMSender{client: client, logger: logger}, nil
}

// Multicast sends one message to every token. Tokens FCM reports as
// unregistered or malformed come back in InvalidTokens so the caller can
// deactivate them.
func (s *FCMSender) Multicast(ctx context.Context, tokens []string, title, body string, data map[string]string) (MulticastResult, error) {
	if s == nil || s.client == nil {
		return MulticastResult{Skipped: true}, nil
	}
	if len(tokens) == 0 {
		return MulticastResult{Skipped: true}, nil
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: androidChannelID,
				Sound:     "default",
			},
		},
	}

	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return MulticastResult{}, fmt.Errorf("fcm multicast: %w", err)
	}

	result := MulticastResult{
		SuccessCount: resp.SuccessCount,
		FailureCount: resp.FailureCount,
	}
	for i, r := range resp.Responses {
		if r.Success {
			continue
		}
		if messaging.IsUnregistered(r.Error) || errorutils.IsInvalidArgument(r.Error) {
			result.InvalidTokens = append(result.InvalidTokens, tokens[i])
		} else {
			s.logger.Warn("push send failed", "error", r.Error)
		}
	}
	return result, nil
}
