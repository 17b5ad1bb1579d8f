package instance

import (
	"os"

	"github.com/tradecert/tradecert-backend/pkg/env"
)

const envInstanceID = "TRADECERT_INSTANCE_ID"

// GetID returns the process identifier used in logs: the configured instance
// id, then the hostname, then "local".
func GetID() string {
	if id, ok := env.Lookup(envInstanceID); ok {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
