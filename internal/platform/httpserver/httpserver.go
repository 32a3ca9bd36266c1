package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project.
// WriteTimeout is generous because a verification waits on OCR and face matching.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}
