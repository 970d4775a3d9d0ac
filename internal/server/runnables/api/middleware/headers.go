package middleware

import (
	"net/http"

	"github.com/robbyt/go-supervisor/runnables/httpserver"
	supervisorHeaders "github.com/robbyt/go-supervisor/runnables/httpserver/middleware/headers"
)

// DefaultResponseHeaders are set on every API response.
var DefaultResponseHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"Cache-Control":          "no-store",
}

// NewResponseHeaders returns middleware that removes the named response
// headers and then sets every header in set.
func NewResponseHeaders(set map[string]string, remove ...string) httpserver.HandlerFunc {
	var operations []supervisorHeaders.HeaderOperation
	if len(remove) > 0 {
		operations = append(operations, supervisorHeaders.WithRemove(remove...))
	}
	if len(set) > 0 {
		h := make(http.Header)
		for key, value := range set {
			h.Set(key, value)
		}
		operations = append(operations, supervisorHeaders.WithSet(h))
	}
	return supervisorHeaders.NewWithOperations(operations...)
}
