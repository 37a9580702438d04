package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/careconnect/backend/internal/domain/entities"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

// Callable is one backend function invoked through the callable protocol
type Callable func(ctx context.Context, caller *entities.Caller, data json.RawMessage) (any, error)

type callableRequest struct {
	Data json.RawMessage `json:"data"`
}

type callableResult struct {
	Result any `json:"result"`
}

type callableError struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type callableErrorBody struct {
	Error callableError `json:"error"`
}

// Bind adapts a typed function to the callable protocol. The data payload is
// decoded into Req; unknown fields and type mismatches are invalid-argument.
func Bind[Req any, Resp any](fn func(ctx context.Context, caller *entities.Caller, req Req) (Resp, error)) Callable {
	return func(ctx context.Context, caller *entities.Caller, data json.RawMessage) (any, error) {
		var req Req
		if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				return nil, decodeError(err)
			}
		}
		return fn(ctx, caller, req)
	}
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.NewValidationError("invalid request data", map[string]string{
			typeErr.Field: fmt.Sprintf("must be a %s", typeErr.Type.Kind()),
		})
	}
	return apperrors.NewValidationError("invalid request data", map[string]string{"data": err.Error()})
}

// callableStatus maps a callable error code to its HTTP status
func callableStatus(code string) int {
	switch code {
	case "unauthenticated":
		return http.StatusUnauthorized
	case "invalid-argument":
		return http.StatusBadRequest
	case "not-found":
		return http.StatusNotFound
	case "already-exists":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorCode returns the callable code for err; untyped errors are internal
func errorCode(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Code()
	}
	return "internal"
}

// writeCallableError writes the error envelope. Internal errors never expose
// their cause.
func writeCallableError(w http.ResponseWriter, err error) {
	body := callableError{Status: "internal", Message: "internal error"}
	if appErr, ok := apperrors.As(err); ok {
		body.Status = appErr.Code()
		if body.Status != "internal" {
			body.Message = appErr.Message
			body.Details = appErr.Fields
		}
	}
	respondWithJSON(w, callableStatus(body.Status), callableErrorBody{Error: body})
}

func writeCallableResult(w http.ResponseWriter, result any) {
	respondWithJSON(w, http.StatusOK, callableResult{Result: result})
}
