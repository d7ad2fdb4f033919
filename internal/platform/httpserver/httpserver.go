package httpserver

import (
	"net/http"
	"time"
)

// New builds the registry API server. Every endpoint is a small JSON
// request/response, so slow-client timeouts are tight; idle is generous for
// keep-alive reuse by polling clients.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
