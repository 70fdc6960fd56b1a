package handler

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/model"
	"github.com/iliyamo/seating-plan/internal/repository"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error  string    `json:"error"`
	Code   string    `json:"code"`
	Entity string    `json:"entity,omitempty"`
	ID     *model.ID `json:"id,omitempty"`
}

// statusOf maps an error code to an HTTP status.
func statusOf(code model.Code) int {
	switch code {
	case model.CodeNotFound:
		return http.StatusNotFound
	case model.CodeDuplicate, model.CodeAlreadySeated, model.CodeCapacity, model.CodeSeatDisabled:
		return http.StatusConflict
	case model.CodeTableLocked, model.CodeLockHeld:
		return http.StatusLocked
	case model.CodeBlocked:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// fail writes err as a JSON error response.  Unexpected errors are logged
// and reported as 500 without their details.
func fail(c echo.Context, logger *log.Logger, err error) error {
	var (
		me   *model.Error
		ve   validator.ValidationErrors
		he   *echo.HTTPError
		body errorBody
		code int
	)
	switch {
	case errors.As(err, &me):
		code = statusOf(me.Code)
		body = errorBody{Error: me.Error(), Code: string(me.Code), Entity: me.Entity}
		if !me.ID.IsZero() {
			id := me.ID
			body.ID = &id
		}
	case errors.Is(err, repository.ErrNotFound):
		code = http.StatusNotFound
		body = errorBody{Error: err.Error(), Code: string(model.CodeNotFound)}
	case errors.Is(err, repository.ErrConflict):
		code = http.StatusConflict
		body = errorBody{Error: err.Error(), Code: string(model.CodeDuplicate)}
	case errors.As(err, &ve):
		code = http.StatusBadRequest
		body = errorBody{Error: ve.Error(), Code: string(model.CodeInvalidInput), Entity: "params"}
	case errors.As(err, &he):
		code = he.Code
		body = errorBody{Error: http.StatusText(he.Code), Code: string(model.CodeInvalidInput)}
		if msg, ok := he.Message.(string); ok {
			body.Error = msg
		}
	default:
		logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
		code = http.StatusInternalServerError
		body = errorBody{Error: "internal error", Code: "INTERNAL"}
	}
	if code >= 400 && code < 500 {
		logger.Debug("request rejected", "path", c.Path(), "status", code, "code", body.Code, "err", err)
	}
	return c.JSON(code, body)
}

// statusFor is statusOf for an arbitrary error.
func statusFor(err error) int {
	var me *model.Error
	if errors.As(err, &me) {
		return statusOf(me.Code)
	}
	return http.StatusInternalServerError
}

func codeOf(err error) string {
	var me *model.Error
	if errors.As(err, &me) {
		return string(me.Code)
	}
	return "INTERNAL"
}
