package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RevinPahlevi/Uvent-Backend/internal/metrics"
)

// Ledger is the durable in-app half of a dual delivery.
type Ledger interface {
	Insert(ctx context.Context, rec Record) error
}

// TokenStore manages push endpoints for the best-effort half.
type TokenStore interface {
	ActiveTokens(ctx context.Context, userID int) ([]string, error)
	DeactivateToken(ctx context.Context, token string) error
}

// Pusher delivers one message to a set of endpoints. Implementations report
// permanently invalid endpoints rather than failing the batch.
type Pusher interface {
	Multicast(ctx context.Context, tokens []string, title, body string, data map[string]string) (MulticastResult, error)
}

// Gateway composes the durable in-app write with a best-effort push attempt.
// Neither half blocks the other; SendOne never returns an error.
type Gateway struct {
	ledger Ledger
	tokens TokenStore
	pusher Pusher
	logger *slog.Logger
}

func NewGateway(ledger Ledger, tokens TokenStore, pusher Pusher, logger *slog.Logger) *Gateway {
	return &Gateway{ledger: ledger, tokens: tokens, pusher: pusher, logger: logger}
}

// SendOne delivers a notification to one user. The in-app write is the
// operation of record; push is attempted regardless of its outcome, silently
// skipped when the user has no endpoints or push is not configured.
func (g *Gateway) SendOne(ctx context.Context, rec Record) Outcome {
	var out Outcome

	if err := g.ledger.Insert(ctx, rec); err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("in-app failed: %v", err))
		g.logger.Warn("in-app notification write failed", "user_id", rec.UserID, "kind", rec.Kind, "error", err)
	} else {
		out.InApp = true
	}

	out = g.attemptPush(ctx, rec, out)

	if out.Delivered() {
		metrics.NotificationsDelivered.WithLabelValues(rec.Kind).Inc()
	} else {
		metrics.NotificationsFailed.WithLabelValues(rec.Kind).Inc()
	}
	return out
}

// SendMany applies SendOne to each recipient in order. One recipient's
// failure never aborts the batch.
func (g *Gateway) SendMany(ctx context.Context, userIDs []int, title, body, kind string, relatedID int, data map[string]string) BatchOutcome {
	var batch BatchOutcome
	for _, uid := range userIDs {
		rec := Record{
			UserID:    uid,
			Title:     title,
			Body:      body,
			Kind:      kind,
			RelatedID: relatedID,
			Data:      data,
		}
		if g.SendOne(ctx, rec).Delivered() {
			batch.Success++
		} else {
			batch.Failed++
		}
	}
	return batch
}

func (g *Gateway) attemptPush(ctx context.Context, rec Record, out Outcome) Outcome {
	if g.pusher == nil {
		return out
	}

	tokens, err := g.tokens.ActiveTokens(ctx, rec.UserID)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("push failed: %v", err))
		g.logger.Warn("push token lookup failed", "user_id", rec.UserID, "error", err)
		return out
	}
	if len(tokens) == 0 {
		return out // no endpoints is not an error
	}

	data := make(map[string]string, len(rec.Data)+2)
	for k, v := range rec.Data {
		data[k] = v
	}
	data["type"] = rec.Kind
	data["related_id"] = fmt.Sprintf("%d", rec.RelatedID)

	result, err := g.pusher.Multicast(ctx, tokens, rec.Title, rec.Body, data)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("push failed: %v", err))
		g.logger.Warn("push multicast failed", "user_id", rec.UserID, "error", err)
		return out
	}
	if result.Skipped {
		return out
	}

	if result.SuccessCount > 0 {
		out.Push = true
	}
	metrics.PushAttempts.Add(float64(result.SuccessCount + result.FailureCount))

	// Retire endpoints FCM reported as permanently invalid.
	for _, token := range result.InvalidTokens {
		if err := g.tokens.DeactivateToken(ctx, token); err != nil {
			g.logger.Warn("token deactivation failed", "error", err)
		} else {
			metrics.TokensDeactivated.Inc()
		}
	}
	return out
}
