package notify

import (
	"log/slog"
	"sync"
)

// Notifier delivers short user-facing messages. The compile/validate paths
// treat it as a fire-and-forget surface: implementations must not fail and
// must be safe for concurrent use.
type Notifier interface {
	Notify(message string)
}

// SlogNotifier surfaces notices through the process logger.
type SlogNotifier struct {
	Logger *slog.Logger
}

func (n *SlogNotifier) Notify(message string) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn(message, slog.String("channel", "notice"))
}

// NoopNotifier drops all messages (default when no surface is wired).
type NoopNotifier struct{}

func (NoopNotifier) Notify(string) {}

// MemoryNotifier records messages for inspection in tests.
type MemoryNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *MemoryNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

// Messages returns a copy of everything notified so far.
func (n *MemoryNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}
