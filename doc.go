// Package auth implements the account and credential core of the API:
// password hashing, JWT issuance and validation, role resolution, and the
// password-recovery token lifecycle.
//
// Orchestration follows a command-handler layout:
//   - RegisterUserHandler creates accounts, enforcing username/email
//     uniqueness both up front and through the store's own constraints.
//   - Auther verifies credentials and mints bearer tokens; failures are
//     indistinguishable between unknown usernames and wrong passwords.
//   - InitializePasswordResetHandler and FinalizePasswordResetHandler drive
//     the single-use reset token. A reset token is staged with one atomic
//     update and consumed with one conditional update, so two racing
//     consumers can never both change the password.
//
// Notifications (reset links, confirmations) run through a Notifier that is
// always best-effort: a failed send is logged and never alters state that
// has already been committed.
package auth
