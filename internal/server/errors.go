package server

import (
	"errors"
	"net/http"

	"github.com/raphaelgruber/recipebox/internal/stepgraph"
)

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	var blocked *stepgraph.DeletionBlockedError
	switch {
	case errors.As(err, &blocked):
		return http.StatusBadRequest
	case errors.Is(err, stepgraph.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, stepgraph.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as an ErrorResponse. Internal errors are logged and
// their details withheld from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var blocked *stepgraph.DeletionBlockedError
	if errors.As(err, &blocked) {
		num := blocked.StepNum
		resp.StepNum = &num
		resp.BlockingStepNums = blocked.BlockingStepNums
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request error", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Error = "internal server error"
	}
	writeJSON(w, status, resp)
}
