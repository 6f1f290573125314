package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

// InitializePasswordResetHandler stages a reset token for the account behind
// an email address and hands it to the notifier. The outcome is the same
// whether or not the address belongs to an account: callers learn nothing
// about which emails are registered, failures only show up in the logs.
type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	resets   *PasswordResetManager
	notifier Notifier
	logger   Logger
}

// NewInitializePasswordResetHandler creates a handler with sane defaults.
func NewInitializePasswordResetHandler(repo RepositoryManager, resets *PasswordResetManager, notifier Notifier) *InitializePasswordResetHandler {
	if notifier == nil {
		notifier = NewLogNotifier("", defLogger{})
	}
	return &InitializePasswordResetHandler{
		repo:     repo,
		resets:   resets,
		notifier: notifier,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			h.logger.Debug("password reset requested for unknown email %s", event.Email)
			return nil
		}
		h.logger.Error("password reset lookup failed for %s: %v", event.Email, err)
		return nil
	}

	token, err := h.resets.Create(ctx, user.ID.String())
	if err != nil {
		h.logger.Error("failed to stage reset token for %s: %v", user.ID, err)
		return nil
	}

	if err := h.notifier.SendPasswordReset(ctx, user.Email, token); err != nil {
		h.logger.Error("failed to send password reset notification to %s: %v", user.Email, err)
	}

	return nil
}
