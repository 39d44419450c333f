package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/orders"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
)

func TestCreateAndGetOrder(t *testing.T) {
	f := newAPIFixture(t)
	f.seedWorkflow(t)
	mobile := "34998887766"
	customer := models.Customer{Name: "João Pereira", Mobile: &mobile, Active: "ativo"}
	require.NoError(t, f.conn.Create(&customer).Error)
	equipment := models.Equipment{CustomerID: customer.ID, Kind: "Impressora", Active: "ativo"}
	require.NoError(t, f.conn.Create(&equipment).Error)

	create := CreateOrder(f.orders, f.logg)
	body, err := json.Marshal(map[string]any{
		"customerId":         customer.ID,
		"equipmentId":        equipment.ID,
		"problemDescription": "atolando papel",
		"locationId":         "loc001",
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	create.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var envelope struct {
		Data models.Order `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "LOC001", envelope.Data.LocationID)

	get := GetOrder(f.orders, f.logg)
	req = httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req = withRouteParam(req, "id", strconv.FormatInt(envelope.Data.ID, 10))
	rec = httptest.NewRecorder()
	get.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"0"`, rec.Header().Get("ETag"))
}

func TestUpdateOrderIfMatchConflict(t *testing.T) {
	f := newAPIFixture(t)
	f.seedWorkflow(t)
	orderID, _ := f.seedOrder(t)
	handler := UpdateOrder(f.orders, f.logg)

	desc := `{"problemDescription":"tela quebrada"}`
	req := httptest.NewRequest(http.MethodPut, "/api/orders/1", bytes.NewReader([]byte(desc)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("If-Match", `"7"`)
	req = withRouteParam(req, "id", strconv.FormatInt(orderID, 10))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodPut, "/api/orders/1", bytes.NewReader([]byte(desc)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("If-Match", `"0"`)
	req = withRouteParam(req, "id", strconv.FormatInt(orderID, 10))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `"1"`, rec.Header().Get("ETag"))
}

func TestUpdateOrderRejectsBadIfMatch(t *testing.T) {
	f := newAPIFixture(t)
	f.seedWorkflow(t)
	orderID, _ := f.seedOrder(t)
	handler := UpdateOrder(f.orders, f.logg)

	req := httptest.NewRequest(http.MethodPut, "/api/orders/1", bytes.NewReader([]byte(`{"problemDescription":"abc"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("If-Match", "banana")
	req = withRouteParam(req, "id", strconv.FormatInt(orderID, 10))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteOrderRequiresReason(t *testing.T) {
	f := newAPIFixture(t)
	f.seedWorkflow(t)
	orderID, _ := f.seedOrder(t)
	handler := DeleteOrder(f.orders, f.logg)

	req := httptest.NewRequest(http.MethodDelete, "/api/orders/1", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req = withRouteParam(req, "id", strconv.FormatInt(orderID, 10))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/orders/1", bytes.NewReader([]byte(`{"reason":"cliente desistiu"}`)))
	req.Header.Set("Content-Type", "application/json")
	req = withRouteParam(req, "id", strconv.FormatInt(orderID, 10))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var order models.Order
	require.NoError(t, f.conn.First(&order, "id_os = ?", orderID).Error)
	assert.Equal(t, "inativo", order.Active)
}

func TestAuditTrailValidatesEntity(t *testing.T) {
	f := newAPIFixture(t)
	handler := AuditTrail(f.audit, f.logg)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/pedido/1", nil)
	req = withRouteParam(req, "entity", "pedido")
	req = withRouteParam(req, "id", "1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditTrailListsOrderHistory(t *testing.T) {
	f := newAPIFixture(t)
	f.seedWorkflow(t)
	mobile := "34998887766"
	customer := models.Customer{Name: "Ana", Mobile: &mobile, Active: "ativo"}
	require.NoError(t, f.conn.Create(&customer).Error)
	equipment := models.Equipment{CustomerID: customer.ID, Kind: "Notebook", Active: "ativo"}
	require.NoError(t, f.conn.Create(&equipment).Error)

	created, err := f.orders.Create(context.Background(), orders.CreateInput{
		CustomerID:         customer.ID,
		EquipmentID:        equipment.ID,
		ProblemDescription: "não carrega",
		LocationID:         "LOC001",
	})
	require.NoError(t, err)

	handler := AuditTrail(f.audit, f.logg)
	req := httptest.NewRequest(http.MethodGet, "/api/audit/ordem/1", nil)
	req = withRouteParam(req, "entity", "ordem")
	req = withRouteParam(req, "id", strconv.FormatInt(created.ID, 10))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data []models.AuditEntry `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.NotEmpty(t, envelope.Data)
	assert.Equal(t, "create", envelope.Data[0].Action)
}
