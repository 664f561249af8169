package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// transientPatterns match wrapped driver errors that lost their type.
var transientPatterns = []string{
	"connection refused",
	"connection reset by peer",
	"broken pipe",
	"i/o timeout",
	"no such host",
	"temporary failure in name resolution",
	"the database system is starting up",
	"too many clients already",
	"database is locked",
}

// IsTransient reports whether err looks like a failure that may clear on
// retry: network timeouts, refused or reset connections, a Postgres server
// still starting, or a busy SQLite file.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
