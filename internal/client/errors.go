package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/raphaelgruber/recipebox/internal/server"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
)

// APIError is a non-2xx answer from the server. It matches the stepgraph
// sentinels for its status, so callers can use errors.Is the same way they
// would against the service directly.
type APIError struct {
	StatusCode int
	Message    string
	blocked    *stepgraph.DeletionBlockedError
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}

	var resp server.ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		e.Message = resp.Error
		if resp.StepNum != nil && len(resp.BlockingStepNums) > 0 {
			e.blocked = &stepgraph.DeletionBlockedError{
				StepNum:          *resp.StepNum,
				BlockingStepNums: resp.BlockingStepNums,
			}
		}
	} else {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func apiErrorFromResponse(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return newAPIError(resp.StatusCode, body)
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.StatusCode, e.Message)
}

// Is maps the HTTP status back onto the stepgraph sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case stepgraph.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case stepgraph.ErrInvalidInput:
		return e.StatusCode == http.StatusBadRequest
	case stepgraph.ErrStoreFailure:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// Unwrap exposes a blocked deletion as *stepgraph.DeletionBlockedError.
func (e *APIError) Unwrap() error {
	if e.blocked == nil {
		return nil
	}
	return e.blocked
}
