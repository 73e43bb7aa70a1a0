package notify

import (
	"context"
	"fmt"
	"io"
	"os"
)

// TerminalNotifier prints notifications to the terminal.
type TerminalNotifier struct {
	w io.Writer
}

// NewTerminalNotifier creates a terminal notifier writing to stdout.
func NewTerminalNotifier() *TerminalNotifier {
	return &TerminalNotifier{w: os.Stdout}
}

// Name implements Notifier.
func (t *TerminalNotifier) Name() string { return "terminal" }

// Send implements Notifier.
func (t *TerminalNotifier) Send(_ context.Context, n Notification) error {
	icon := "ℹ"
	switch n.Type {
	case NotificationTrade:
		icon = "✓"
	case NotificationIdea:
		icon = "💡"
	case NotificationError:
		icon = "✗"
	}
	_, err := fmt.Fprintf(t.w, "%s %s: %s\n", icon, n.Title, n.Message)
	return err
}
