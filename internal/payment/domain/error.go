package domain

import "errors"

var (
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrInvalidPayload      = errors.New("invalid webhook payload")
	ErrInvalidEvent        = errors.New("invalid webhook event")
	ErrEventIgnored        = errors.New("event ignored")
	ErrInvalidConfig       = errors.New("invalid payment provider config")
	ErrUnsupportedProvider = errors.New("unsupported payment provider")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrSessionNotPaid      = errors.New("checkout session not paid")
	ErrNoSubscription      = errors.New("no provider subscription on record")
)
