// Package notify provides notification functionality for the trading assistant.
package notify

import (
	"context"
	"time"

	"tradeassist/internal/models"
	"tradeassist/pkg/utils"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	Name() string
}

// Notification represents a notification message.
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Timestamp time.Time
}

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTrade NotificationType = "trade"
	NotificationIdea  NotificationType = "idea"
	NotificationError NotificationType = "error"
	NotificationInfo  NotificationType = "info"
)

// Level filters which notification types get sent.
type Level string

const (
	LevelAll        Level = "all"
	LevelTradesOnly Level = "trades_only"
	LevelErrorsOnly Level = "errors_only"
)

// Allows reports whether a level permits a notification type.
func (l Level) Allows(t NotificationType) bool {
	switch l {
	case LevelAll:
		return true
	case LevelTradesOnly:
		return t == NotificationTrade || t == NotificationIdea
	case LevelErrorsOnly:
		return t == NotificationError
	default:
		return false
	}
}

// ForOrderFill builds a notification for a submitted order.
func ForOrderFill(order models.ValidOrder, tradeID string) Notification {
	return Notification{
		Type:  NotificationTrade,
		Title: "Order submitted",
		Message: order.Symbol + " " + string(order.Side) + " x" +
			utils.FormatQuantity(int64(order.Quantity)) + " @ " +
			utils.FormatIndianCurrency(order.EntryPrice) + " (trade " + tradeID + ")",
		Timestamp: time.Now(),
	}
}

// ForIdeaFlip builds a notification for a backend idea status change.
func ForIdeaFlip(aiTradeID string, status models.TradeStatus) Notification {
	return Notification{
		Type:      NotificationIdea,
		Title:     "Trade idea update",
		Message:   "Idea " + aiTradeID + " is now " + string(status),
		Timestamp: time.Now(),
	}
}

// Fanout sends a notification to multiple notifiers, dropping per-channel
// errors after logging them at the caller.
type Fanout struct {
	Level     Level
	Notifiers []Notifier
}

// Send delivers the notification to every channel the level allows.
func (f *Fanout) Send(ctx context.Context, n Notification) error {
	if !f.Level.Allows(n.Type) {
		return nil
	}
	var firstErr error
	for _, notifier := range f.Notifiers {
		if err := notifier.Send(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
