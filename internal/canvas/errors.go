package canvas

import (
	"errors"
	"fmt"

	"github.com/canvasai/canvas-ai/internal/types"
)

// Error kinds for failures that never produced an HTTP status.
const (
	kindHTTP    = "http"
	kindTimeout = "timeout"
	kindNetwork = "network"
)

// APIError carries what the caller needs to classify a Canvas API failure:
// the status code when one was received, otherwise the transport kind.
type APIError struct {
	StatusCode int
	Endpoint   string
	Kind       string
	URL        string
}

func (e *APIError) Error() string {
	switch e.Kind {
	case kindTimeout:
		return fmt.Sprintf("timeout calling %s", e.URL)
	case kindNetwork:
		return fmt.Sprintf("network error calling %s", e.URL)
	default:
		return fmt.Sprintf("http error %d calling %s", e.StatusCode, e.URL)
	}
}

// IsTimeout reports whether the request timed out before a response arrived.
func (e *APIError) IsTimeout() bool { return e.Kind == kindTimeout }

// IsNetwork reports whether a non-timeout transport failure occurred.
func (e *APIError) IsNetwork() bool { return e.Kind == kindNetwork }

// MapError converts a client error into the CLI error taxonomy. Non-API
// errors fall through to INTERNAL_ERROR.
func MapError(err error) *types.CLIError {
	if err == nil {
		return nil
	}
	if cliErr, ok := types.AsCLIError(err); ok {
		return cliErr
	}

	code := types.CodeInternal
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401:
			code = types.CodeAuth
		case apiErr.StatusCode == 403:
			code = types.CodePermission
		case apiErr.StatusCode == 404:
			code = types.CodeNotFound
		case apiErr.StatusCode == 429:
			code = types.CodeRateLimit
		case apiErr.Kind == kindTimeout || apiErr.Kind == kindNetwork:
			code = types.CodeNetworkTimeout
		}
	}
	return types.NewCLIError(code, "Canvas API error: %v", err)
}
