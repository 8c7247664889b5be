package api

import (
	"fmt"
	"net/http"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

// Config holds configuration for the quota API handler.
type Config struct {
	// Manager is the quota manager instance (required)
	Manager *botquota.Manager

	// GetUserID extracts the caller's user ID from an HTTP request (required).
	// It identifies both ordinary callers and admin callers; admin checks
	// happen inside the manager.
	GetUserID func(*http.Request) string

	// OnError handles errors (auth, internal, etc.)
	// If nil, uses default error handling
	OnError func(http.ResponseWriter, *http.Request, error)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Manager == nil {
		return fmt.Errorf("manager is required")
	}
	if c.GetUserID == nil {
		return fmt.Errorf("getUserID is required")
	}
	return nil
}

// NewHandler creates a new quota API handler with the given configuration.
func NewHandler(config Config) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Handler{config: config}, nil
}
