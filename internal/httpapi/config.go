package httpapi

import (
	"sync/atomic"
	"time"
)

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// adminTimeout bounds blocking admin operations (activate, deactivate).
// Zero means the operation runs until it completes or the client goes away.
var adminTimeout atomic.Int64

// SetAdminTimeout sets the admin operation timeout (0 disables).
func SetAdminTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	adminTimeout.Store(int64(d))
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
