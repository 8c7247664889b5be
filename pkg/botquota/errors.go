package botquota

import "errors"

var (
	// ErrUnauthorized is returned when a non-admin invokes an admin operation
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidArgument is returned for malformed admin input
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrLimitNotSet is returned by stores when a user has no daily limit override
	ErrLimitNotSet = errors.New("daily limit not set")

	// ErrStoreUnavailable is returned when no store is configured
	ErrStoreUnavailable = errors.New("store unavailable")
)
