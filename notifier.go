package auth

import (
	"context"
	"fmt"
	"sync"
)

// logNotifier is the default Notifier; it prints the message instead of
// delivering it, which keeps development and tests self-contained.
type logNotifier struct {
	baseURL string
	logger  Logger
}

// NewLogNotifier returns a Notifier that logs outbound messages.
func NewLogNotifier(baseURL string, logger Logger) Notifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &logNotifier{baseURL: baseURL, logger: logger}
}

func (n *logNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.logger.Info("password reset notification",
		"to", email,
		"link", fmt.Sprintf("%s/reset-password?token=%s", n.baseURL, token),
	)
	return nil
}

func (n *logNotifier) SendPasswordResetConfirmation(_ context.Context, email string) error {
	n.logger.Info("password reset confirmation notification", "to", email)
	return nil
}

type notification struct {
	kind  string
	email string
	token string
}

// AsyncNotifier wraps a Notifier with a buffered channel and one worker
// goroutine. Enqueueing never blocks the request path and a send failure is
// only logged: by the time a notification exists, the state it reports has
// already been committed to the store.
type AsyncNotifier struct {
	inner  Notifier
	queue  chan notification
	logger Logger

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	done      chan struct{}
}

// NewAsyncNotifier wraps inner; buffer controls how many pending messages
// are held before new ones are dropped.
func NewAsyncNotifier(inner Notifier, buffer int) *AsyncNotifier {
	if buffer <= 0 {
		buffer = 64
	}
	return &AsyncNotifier{
		inner:  inner,
		queue:  make(chan notification, buffer),
		logger: defLogger{},
		done:   make(chan struct{}),
	}
}

func (n *AsyncNotifier) WithLogger(logger Logger) *AsyncNotifier {
	if logger != nil {
		n.logger = logger
	}
	return n
}

// Start launches the worker goroutine. Safe to call once; later calls are
// no-ops.
func (n *AsyncNotifier) Start() *AsyncNotifier {
	n.startOnce.Do(func() {
		n.started = true
		go n.worker()
	})
	return n
}

// Stop closes the queue and waits for the worker to drain it.
func (n *AsyncNotifier) Stop() {
	n.stopOnce.Do(func() {
		close(n.queue)
		if n.started {
			<-n.done
		}
	})
}

func (n *AsyncNotifier) worker() {
	defer close(n.done)
	for msg := range n.queue {
		var err error
		switch msg.kind {
		case "reset":
			err = n.inner.SendPasswordReset(context.Background(), msg.email, msg.token)
		case "reset-confirmation":
			err = n.inner.SendPasswordResetConfirmation(context.Background(), msg.email)
		}
		if err != nil {
			n.logger.Warn("notification send failed", "kind", msg.kind, "error", err)
		}
	}
}

func (n *AsyncNotifier) enqueue(msg notification) error {
	select {
	case n.queue <- msg:
	default:
		n.logger.Warn("notification queue full, dropping message", "kind", msg.kind)
	}
	return nil
}

// SendPasswordReset enqueues the reset link message; it never blocks.
func (n *AsyncNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	return n.enqueue(notification{kind: "reset", email: email, token: token})
}

// SendPasswordResetConfirmation enqueues the confirmation message; it never
// blocks.
func (n *AsyncNotifier) SendPasswordResetConfirmation(_ context.Context, email string) error {
	return n.enqueue(notification{kind: "reset-confirmation", email: email})
}

var _ Notifier = (*AsyncNotifier)(nil)
var _ Notifier = (*logNotifier)(nil)
