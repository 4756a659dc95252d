// Package backend holds helpers shared by the task backends.
package backend

import (
	"context"
	"errors"
	"net"
	"strings"

	"google.golang.org/api/googleapi"

	"todo/internal/service"
)

// Wrap classifies an error returned by an API call into a *service.Error.
// HTTP failures arrive as *googleapi.Error from both the REST and the
// Google Tasks backends.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return service.FromStatus(apiErr.Code, apiMessage(apiErr), err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return service.Network("request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return service.Network("cancelled", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return service.Network("request timed out", err)
	}

	return service.Network("request failed", err)
}

// apiMessage picks the most useful message carried by a googleapi.Error.
func apiMessage(e *googleapi.Error) string {
	if e.Message != "" {
		return e.Message
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	return body
}
