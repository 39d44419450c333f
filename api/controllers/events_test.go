package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/middleware"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/readers"
)

func TestScanEventMovesOrder(t *testing.T) {
	f := newAPIFixture(t)
	f.seedWorkflow(t)
	orderID, uid := f.seedOrder(t)
	handler := ScanEvent(f.tracking, f.readers, f.logg)

	body := []byte(`{"uid":"` + uid + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/ardloc/event", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithReader(req.Context(), readers.Identity{Code: "bancada-01", ScannerID: "LOC002"}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var envelope struct {
		Ok   bool `json:"ok"`
		Data struct {
			UID         string `json:"uid"`
			Reader      string `json:"reader"`
			OrderID     int64  `json:"orderId"`
			NewLocation string `json:"newLocation"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.True(t, envelope.Ok)
	assert.Equal(t, uid, envelope.Data.UID)
	assert.Equal(t, "bancada-01", envelope.Data.Reader)
	assert.Equal(t, orderID, envelope.Data.OrderID)
	assert.Equal(t, "LOC002", envelope.Data.NewLocation)
}

func TestScanEventWithoutReaderContext(t *testing.T) {
	f := newAPIFixture(t)
	handler := ScanEvent(f.tracking, f.readers, f.logg)

	req := httptest.NewRequest(http.MethodPost, "/api/ardloc/event", bytes.NewReader([]byte(`{"uid":"04A1B2C3D4E5F6"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScanEventUnknownTag(t *testing.T) {
	f := newAPIFixture(t)
	f.seedWorkflow(t)
	handler := ScanEvent(f.tracking, f.readers, f.logg)

	req := httptest.NewRequest(http.MethodPost, "/api/ardloc/event", bytes.NewReader([]byte(`{"uid":"DEADBEEF01"}`)))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithReader(req.Context(), readers.Identity{Code: "bancada-01", ScannerID: "LOC002"}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPushUIDAndLastUID(t *testing.T) {
	f := newAPIFixture(t)
	push := PushUID(f.readers, f.logg)

	req := httptest.NewRequest(http.MethodPost, "/api/ardloc/push-uid", bytes.NewReader([]byte(`{"uid":"04 a1 b2 c3 d4 e5 f6"}`)))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithReader(req.Context(), readers.Identity{Code: "balcao-01", ScannerID: "LOC001"}))
	rec := httptest.NewRecorder()
	push.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	last := LastUID(f.readers, f.logg)
	req = httptest.NewRequest(http.MethodGet, "/api/ardloc/last-uid?reader=balcao-01", nil)
	rec = httptest.NewRecorder()
	last.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "04A1B2C3D4E5F6")
}

func TestLastUIDRequiresReaderParam(t *testing.T) {
	f := newAPIFixture(t)
	handler := LastUID(f.readers, f.logg)

	req := httptest.NewRequest(http.MethodGet, "/api/ardloc/last-uid", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBindAndUnbindTag(t *testing.T) {
	f := newAPIFixture(t)
	f.seedWorkflow(t)
	orderID, _ := f.seedOrder(t)

	bind := BindTag(f.tracking, f.logg)
	body, err := json.Marshal(map[string]any{"uid": "AA11BB22CC33", "orderId": orderID})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/rfid/bind", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	bind.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	current := CurrentBind(f.tracking, f.logg)
	req = httptest.NewRequest(http.MethodGet, "/api/rfid/bindings/current?uid=AA11BB22CC33", nil)
	rec = httptest.NewRecorder()
	current.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	unbind := UnbindTag(f.tracking, f.logg)
	req = httptest.NewRequest(http.MethodPost, "/api/rfid/unbind", bytes.NewReader([]byte(`{"uid":"AA11BB22CC33"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	unbind.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/rfid/unbind", bytes.NewReader([]byte(`{"uid":"AA11BB22CC33"}`)))
	req.Header.Set("Content-Type", "application/json")
	unbind.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBindTagRejectsMissingOrder(t *testing.T) {
	f := newAPIFixture(t)
	handler := BindTag(f.tracking, f.logg)

	req := httptest.NewRequest(http.MethodPost, "/api/rfid/bind", bytes.NewReader([]byte(`{"uid":"AA11BB22CC33","orderId":999}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
