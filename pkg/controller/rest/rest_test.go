/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/pkg/tbdex/requesttoken"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{tbdexerr.New(tbdexerr.MalformedMessage, "bad"), http.StatusBadRequest},
		{tbdexerr.New(tbdexerr.HashMismatch, "bad"), http.StatusBadRequest},
		{tbdexerr.New(tbdexerr.OfferingRequirementsNotMet, "bad"), http.StatusBadRequest},
		{tbdexerr.New(tbdexerr.UnsupportedMessageKind, "bad"), http.StatusBadRequest},
		{tbdexerr.New(tbdexerr.InvalidSignature, "bad"), http.StatusUnauthorized},
		{fmt.Errorf("authenticate: %w", requesttoken.ErrInvalidToken), http.StatusUnauthorized},
		{tbdexerr.New(tbdexerr.NotFound, "gone"), http.StatusNotFound},
		{tbdexerr.New(tbdexerr.InvalidStateTransition, "bad"), http.StatusConflict},
		{fmt.Errorf("submit: %w", tbdexerr.New(tbdexerr.InconsistentMetadata, "bad")), http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		require.Equal(t, tc.status, StatusOf(tc.err), tc.err.Error())
	}
}

func TestSendError(t *testing.T) {
	t.Run("tbdex error with details", func(t *testing.T) {
		rr := httptest.NewRecorder()

		SendError(rr, tbdexerr.New(tbdexerr.OfferingRequirementsNotMet, "payin kind BTC is not offered").
			WithDetails("payin.kind"))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var body genericErrorBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Equal(t, "OfferingRequirementsNotMet: payin kind BTC is not offered", body.Message)
		require.Equal(t, []errorDetail{{Message: "payin.kind"}}, body.Details)
	})

	t.Run("internal errors are not disclosed", func(t *testing.T) {
		rr := httptest.NewRecorder()

		SendError(rr, errors.New("open /var/lib/tbdex: permission denied"))

		require.Equal(t, http.StatusInternalServerError, rr.Code)
		require.JSONEq(t, `{"message":"internal server error"}`, rr.Body.String())
	})

	t.Run("write failure", func(t *testing.T) {
		SendHTTPStatusError(&mockRWriter{}, http.StatusBadRequest, errors.New("sample error"))
	})
}

func TestNewHandler(t *testing.T) {
	called := false

	h := NewHandler("/offerings", http.MethodGet, func(http.ResponseWriter, *http.Request) { called = true })
	require.Equal(t, "/offerings", h.Path())
	require.Equal(t, http.MethodGet, h.Method())

	h.Handle()(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/offerings", nil))
	require.True(t, called)
}

// mockRWriter to recreate response writer error scenario.
type mockRWriter struct{}

func (m *mockRWriter) Header() http.Header {
	return make(map[string][]string)
}

func (m *mockRWriter) Write([]byte) (int, error) {
	return 0, fmt.Errorf("failed to write body")
}

func (m *mockRWriter) WriteHeader(int) {}
