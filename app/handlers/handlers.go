package handlers

import (
	"context"
	"io"
	"net/http"
)

// HandleRobotsTXT keeps crawlers off the live API.
func HandleRobotsTXT(_ context.Context, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	data := []string{
		"User-agent: *",
		"Disallow: /api/",
	}
	for _, line := range data {
		io.WriteString(w, line+"\r\n")
	}
}

// HandleHealthz answers load balancer checks.
func HandleHealthz(_ context.Context, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, "ok\n")
}
