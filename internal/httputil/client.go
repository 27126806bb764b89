package httputil

import (
	"net/http"
	"time"
)

const UserAgent = "alertalluvia/1.0"

// NewClient returns an HTTP client. A zero timeout leaves the client
// without a deadline, matching http.DefaultClient.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}
