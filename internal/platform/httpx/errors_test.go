package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	RespondError(rec, err)

	var body MessageBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body.Message
}

func TestRespondErrorStatusMapping(t *testing.T) {
	status, msg := respond(t, NotFound("Color not found"))
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "Color not found", msg)

	status, msg = respond(t, Validation("Color name is required"))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Color name is required", msg)

	status, msg = respond(t, Conflict("Color already exists"))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Color already exists", msg)

	status, msg = respond(t, Unauthorized("Session expired, please log in again"))
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Session expired, please log in again", msg)
}

func TestRespondErrorWrapsUnknownErrors(t *testing.T) {
	status, msg := respond(t, errors.New("pq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "Server error: pq: connection refused", msg)
}

func TestRespondErrorKeepsWrappedSentinel(t *testing.T) {
	wrapped := errors.Join(errors.New("repo failure"), ErrNotFound)
	status, _ := respond(t, wrapped)
	require.Equal(t, http.StatusNotFound, status)
}
