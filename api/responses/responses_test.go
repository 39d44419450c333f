package responses

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/types"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"uid": "04A1B2C3"})

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Ok)
}

func TestWriteErrorMapsCodeToStatus(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{pkgerrors.New(pkgerrors.CodeValidation, "uid must contain at least 8 hex digits"), 400, "VALIDATION_ERROR"},
		{pkgerrors.New(pkgerrors.CodePrecondition, "tag is not bound"), 400, "PRECONDITION_FAILED"},
		{pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid reader key"), 401, "UNAUTHORIZED"},
		{pkgerrors.New(pkgerrors.CodeNotFound, "order not found"), 404, "NOT_FOUND"},
		{pkgerrors.New(pkgerrors.CodeConflict, "concurrent update"), 409, "CONFLICT"},
		{pkgerrors.New(pkgerrors.CodeRateLimit, "slow down"), 429, "RATE_LIMIT_EXCEEDED"},
		{pkgerrors.New(pkgerrors.CodeInternal, "boom"), 500, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, tc.err)
		assert.Equal(t, tc.wantStatus, rec.Code)

		var envelope types.ErrorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.Equal(t, tc.wantCode, envelope.Error.Code)
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "dsn user=admin leaked"))

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "internal server error", envelope.Error.Message)
}
