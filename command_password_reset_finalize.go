package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type FinalizePasswordResetMessage struct {
	Token    string `json:"token" example:"5gdF93jW0p4hT2mYxQ8cKz" doc:"Reset password token"`
	Password string `json:"password" example:"some_secret_word" doc:"New password"`

	OnResponse func(user *User)
}

func (p FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

type FinalizePasswordResetHandler struct {
	resets   *PasswordResetManager
	notifier Notifier
	logger   Logger
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(resets *PasswordResetManager, notifier Notifier) *FinalizePasswordResetHandler {
	if notifier == nil {
		notifier = NewLogNotifier("", defLogger{})
	}
	return &FinalizePasswordResetHandler{
		resets:   resets,
		notifier: notifier,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	passwordHash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid new password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	user, err := h.resets.Consume(ctx, event.Token, passwordHash)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	// the password is already changed at this point, a confirmation email
	// that cannot be delivered must not fail the reset
	if err := h.notifier.SendPasswordResetConfirmation(ctx, user.Email); err != nil {
		h.logger.Warn("failed to send reset confirmation to %s: %v", user.Email, err)
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
