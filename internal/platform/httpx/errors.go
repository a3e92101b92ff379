// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/rolegate/rolegate/internal/shared"
)

// StatusInvalidToken is the non-standard status returned for unverifiable tokens.
const StatusInvalidToken = 498

// Fixed messages per error kind. Internal detail never reaches the caller.
const (
	MsgTokenNotSupplied   = "Authentication token not supplied."
	MsgInvalidToken       = "Invalid authentication token."
	MsgNotAuthorized      = "Not authorized!"
	MsgInvalidCredentials = "Invalid email or password"
	MsgNotFound           = "Resource not found"
	MsgConflict           = "Resource already exists"
	MsgValidation         = "Validation failed"
	MsgInternal           = "Internal server error"
)

// StatusFor returns the HTTP status and public message for err.
func StatusFor(err error) (int, string) {
	var fe *shared.FieldError
	var me interface{ Public() string }
	switch {
	case errors.As(err, &fe):
		return http.StatusBadRequest, fe.Message
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest, MsgValidation
	case errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusBadRequest, MsgInvalidCredentials
	case errors.Is(err, shared.ErrUnauthenticated):
		return http.StatusUnauthorized, MsgTokenNotSupplied
	case errors.Is(err, shared.ErrInvalidToken):
		return StatusInvalidToken, MsgInvalidToken
	case errors.Is(err, shared.ErrNotAuthorized):
		return http.StatusUnauthorized, MsgNotAuthorized
	case errors.Is(err, shared.ErrNotFound):
		if errors.As(err, &me) {
			return http.StatusNotFound, me.Public()
		}
		return http.StatusNotFound, MsgNotFound
	case errors.Is(err, shared.ErrConflict):
		if errors.As(err, &me) {
			return http.StatusConflict, me.Public()
		}
		return http.StatusConflict, MsgConflict
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// RespondError maps domain errors to JSON message responses.
func RespondError(w http.ResponseWriter, err error) {
	status, msg := StatusFor(err)
	Message(w, status, msg)
}
