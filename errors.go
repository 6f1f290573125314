package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeUsernameTaken     = "USERNAME_TAKEN"
	TextCodeEmailTaken        = "EMAIL_TAKEN"
	TextCodeResetTokenInvalid = "RESET_TOKEN_INVALID"
	TextCodeResetTokenExpired = "RESET_TOKEN_EXPIRED"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeTokenSignature    = "TOKEN_SIGNATURE_INVALID"
	TextCodeForbidden         = "FORBIDDEN"
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
)

// ErrInvalidCredentials is the uniform signin failure. An unknown username
// and a wrong password must be externally indistinguishable.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrUsernameTaken is returned when a signup username collides.
var ErrUsernameTaken = errors.New("username is already in use", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(errors.CodeBadRequest)

// ErrEmailTaken is returned when a signup email collides.
var ErrEmailTaken = errors.New("email is already in use", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeBadRequest)

// ErrResetTokenInvalid covers an unknown reset token and the loser of a
// consume race. Both cases must look like the token never existed.
var ErrResetTokenInvalid = errors.New("invalid or expired password reset token", errors.CategoryBadInput).
	WithTextCode(TextCodeResetTokenInvalid).
	WithCode(errors.CodeBadRequest)

// ErrResetTokenExpired is the lazy expiry failure. It carries the same
// message and status as ErrResetTokenInvalid; only the TextCode differs so
// operators can split the two in logs.
var ErrResetTokenExpired = errors.New("invalid or expired password reset token", errors.CategoryBadInput).
	WithTextCode(TextCodeResetTokenExpired).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned for bearer tokens past their exp claim.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeBadRequest)

// ErrTokenMalformed is returned for tokens that cannot be decoded.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeBadRequest)

// ErrTokenSignature is returned for tampered tokens or a wrong signing key.
var ErrTokenSignature = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(errors.CodeBadRequest)

// ErrForbidden is the authorization guard denial.
var ErrForbidden = errors.New("access denied", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrUserNotFound is used by non-recovery lookups (admin user endpoints).
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrUnableToParseBody flags a request body the codec could not decode.
var ErrUnableToParseBody = errors.New("unable to parse request body", errors.CategoryBadInput).
	WithTextCode("UNPARSABLE_BODY").
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString rejects empty plaintext passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch; orchestrators
// translate it to ErrInvalidCredentials before it reaches the boundary.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for undecodable tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUniqueViolation detects the store's uniqueness constraint firing. This is
// the backstop for the signup check-then-act race; the driver only exposes
// the condition through its message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
