// Package handlers implements the HTTP endpoints of the scoring API.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/turtacn/molscore/pkg/errors"
)

// maxRequestBody bounds JSON request bodies when the router does not
// configure a limit.
const maxRequestBody int64 = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeError maps err to its HTTP status and writes an ErrorResponse.
// Errors without an application code are masked as internal errors.
func writeError(w http.ResponseWriter, err error) {
	var ae *errors.AppError
	if !stderrors.As(err, &ae) {
		ae = errors.Internal("internal server error")
	}
	status := errors.HTTPStatusForCode(ae.Code)
	resp := ErrorResponse{Code: ae.Code.String(), Message: ae.Message, Detail: ae.Detail}
	if ae.Code == errors.ErrCodeInternal {
		resp.Detail = ""
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a single JSON object from r into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) error {
	if limit <= 0 {
		limit = maxRequestBody
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.Newf(errors.ErrCodeBadRequest, "request body exceeds %d bytes", limit)
		case stderrors.Is(err, io.EOF):
			return errors.New(errors.ErrCodeBadRequest, "request body is empty")
		default:
			return errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body")
		}
	}
	if dec.More() {
		return errors.New(errors.ErrCodeBadRequest, "request body must hold a single JSON object")
	}
	return nil
}

//Personal.AI order the ending
