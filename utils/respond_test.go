package utils_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"go-storefront/utils"
)

func TestErrorTaxonomyStatusCodes(t *testing.T) {
	cases := []struct {
		err    *utils.HTTPError
		status int
	}{
		{utils.InvalidInput("bad"), http.StatusBadRequest},
		{utils.Unauthenticated("who"), http.StatusUnauthorized},
		{utils.Forbidden("no"), http.StatusForbidden},
		{utils.NotFound("gone"), http.StatusNotFound},
	}
	for _, tc := range cases {
		require.Equal(t, tc.status, tc.err.Status)
	}
}

func TestWriteErrorRendersMessageBody(t *testing.T) {
	rec := httptest.NewRecorder()
	utils.WriteError(rec, utils.NotFound("Order not found"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Order not found", body["message"])
}

func TestWriteErrorUnwrapsWrappedHTTPError(t *testing.T) {
	rec := httptest.NewRecorder()
	utils.WriteError(rec, fmt.Errorf("loading order: %w", utils.Forbidden("Forbidden")))

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWriteErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	utils.WriteError(rec, errors.New("connection refused to mongodb://secret-host"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Internal Server Error", body["message"])
	require.NotContains(t, rec.Body.String(), "secret-host")
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	utils.WriteJSON(rec, http.StatusCreated, map[string]int{"n": 1})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"n":1}`, rec.Body.String())
}
