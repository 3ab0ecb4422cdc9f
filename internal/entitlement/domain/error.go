package domain

import "errors"

var (
	ErrEntitlementNotFound = errors.New("entitlement not found")
	ErrFeatureNotAvailable = errors.New("feature not available on current plan")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)
