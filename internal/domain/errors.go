package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrAdminExists        = errors.New("admin already exists")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
	ErrRecaptchaFailed    = errors.New("recaptcha verification failed")
	ErrFederatedDisabled  = errors.New("federated login is not configured")
)

var ErrAssistantUnavailable = errors.New("chat assistant is unavailable")
