package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seating-plan/internal/logging"
	"github.com/iliyamo/seating-plan/internal/model"
	"github.com/iliyamo/seating-plan/internal/repository"
)

func TestFail(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", model.Errorf(model.CodeNotFound, "table", model.IntID(4), "does not exist"), http.StatusNotFound, "NOT_FOUND"},
		{"duplicate", model.Errorf(model.CodeDuplicate, "seat", model.IntID(1), "taken"), http.StatusConflict, "DUPLICATE"},
		{"locked", model.Errorf(model.CodeTableLocked, "table", model.IntID(2), "locked"), http.StatusLocked, "TABLE_LOCKED"},
		{"lock held", model.Errorf(model.CodeLockHeld, "table", model.IntID(2), "held"), http.StatusLocked, "LOCK_HELD"},
		{"blocked", model.Errorf(model.CodeBlocked, "plan", model.ID{}, "errors"), http.StatusUnprocessableEntity, "BLOCKED"},
		{"invalid", model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "bad"), http.StatusBadRequest, "INVALID_INPUT"},
		{"repo not found", repository.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"repo conflict", repository.ErrConflict, http.StatusConflict, "DUPLICATE"},
		{"http", echo.NewHTTPError(http.StatusUnsupportedMediaType, "unsupported"), http.StatusUnsupportedMediaType, "INVALID_INPUT"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL"},
	}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			require.NoError(t, fail(c, logging.Discard(), tc.err))
			assert.Equal(t, tc.status, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, body.Error, "disk")
			}
		})
	}
}

func TestFailNamesEntity(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, fail(c, logging.Discard(), model.Errorf(model.CodeNotFound, "seat", model.IntID(7), "does not exist")))

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "seat", body.Entity)
	require.NotNil(t, body.ID)
	assert.Equal(t, model.IntID(7), *body.ID)
}

func TestValidatorUsesJSONNames(t *testing.T) {
	err := NewValidator().Validate(&hallRequest{Width: 0, Height: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "width")
	assert.NoError(t, NewValidator().Validate(&hallRequest{Width: 1, Height: 1}))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(model.Errorf(model.CodeCapacity, "table", model.IntID(1), "full")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("x")))
	assert.Equal(t, "SEAT_DISABLED", codeOf(model.ErrSeatDisabled))
	assert.Equal(t, "INTERNAL", codeOf(errors.New("x")))
}
