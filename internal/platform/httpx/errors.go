// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

// ErrBadRequest marks malformed requests (unparseable JSON, bad path params).
var ErrBadRequest = errors.New("bad request")

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var fieldErrs shared.ValidationErrors
	var fieldErr *shared.ValidationError
	switch {
	case errors.As(err, &fieldErrs):
		JSON(w, http.StatusUnprocessableEntity, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Detail: fieldErrs.Error(),
			Errors: fieldErrs.Fields(),
		})
	case errors.As(err, &fieldErr):
		JSON(w, http.StatusUnprocessableEntity, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Detail: fieldErr.Error(),
			Errors: shared.ValidationErrors{fieldErr}.Fields(),
		})
	case errors.Is(err, ErrBadRequest):
		Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
	}
}
