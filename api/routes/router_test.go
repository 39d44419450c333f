package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/catalog"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/notify"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/orders"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/readers"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/registry"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/schema"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/tracking"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/config"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB, *readers.Service) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Customer{}, &models.Equipment{}, &models.Technician{},
		&models.WorkflowStatus{}, &models.Location{}, &models.Order{},
		&models.Tag{}, &models.TagBinding{}, &models.AuditEntry{},
		&models.Reader{}, &models.LastSeenUID{},
	))
	client := db.FromGorm(conn)
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})

	rec, err := audit.NewRecorder(client)
	require.NoError(t, err)
	cat, err := catalog.NewService(client, rec, nil)
	require.NoError(t, err)
	prober := &schema.Static{
		Tables: map[string]bool{"ordenservico": true, "rastreamentorfid": true},
		Columns: map[string]bool{
			"ordenservico.id_local":         true,
			"ordenservico.id_status_os":     true,
			"ordenservico.status":           true,
			"ordenservico.version":          true,
			"ordenservico.data_atualizacao": true,
			"ordenservico.data_criacao":     true,
		},
		PrimaryKeys: map[string]string{"ordenservico": "id_os"},
	}
	trackSvc, err := tracking.NewService(client, prober, cat, rec, notify.Noop{}, nil, logg)
	require.NoError(t, err)
	keyCfg := config.ReaderKeyConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16}
	readerSvc, err := readers.NewService(client, keyCfg, rec)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(client, cat, rec)
	require.NoError(t, err)
	regSvc, err := registry.NewService(client, rec)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Env = "dev"
	handler := NewRouter(cfg, logg, client, nil, trackSvc, readerSvc, cat, orderSvc, regSvc, rec)
	return handler, conn, readerSvc
}

func TestRouterHealthLive(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get("X-SAT-Env"))
}

func TestRouterScanRequiresReaderHeaders(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/ardloc/event", bytes.NewReader([]byte(`{"uid":"04A1B2C3D4E5"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterScanEndToEnd(t *testing.T) {
	handler, conn, readerSvc := newTestRouter(t)

	scannerID := "LOC002"
	diag := "Em Diagnóstico"
	require.NoError(t, conn.Create(&models.WorkflowStatus{Description: diag}).Error)
	require.NoError(t, conn.Create(&models.Location{
		ScannerID: scannerID, Label: "Bancada de Diagnóstico",
		InternalStatus: &diag, Active: catalog.StatusActive,
	}).Error)

	mobile := "34998887766"
	customer := models.Customer{Name: "Maria", Mobile: &mobile, Active: "ativo"}
	require.NoError(t, conn.Create(&customer).Error)
	equipment := models.Equipment{CustomerID: customer.ID, Kind: "Notebook", Active: "ativo"}
	require.NoError(t, conn.Create(&equipment).Error)
	order := models.Order{
		CustomerID: customer.ID, EquipmentID: equipment.ID,
		ProblemDescription: "não liga", LocationID: "LOC001", Active: "ativo",
	}
	require.NoError(t, conn.Create(&order).Error)
	require.NoError(t, conn.Create(&models.Tag{UID: "04A1B2C3D4E5", EquipmentID: equipment.ID}).Error)

	registered, err := readerSvc.Upsert(context.Background(), readers.UpsertInput{
		Code: "bancada-01", ScannerID: &scannerID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, registered.Key)

	body := []byte(`{"uid":"04A1B2C3D4E5"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/ardloc/event", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Reader-Code", "bancada-01")
	req.Header.Set("X-Reader-Key", registered.Key)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var envelope struct {
		Data struct {
			NewLocation string `json:"newLocation"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, scannerID, envelope.Data.NewLocation)

	var moved models.Order
	require.NoError(t, conn.First(&moved, "id_os = ?", order.ID).Error)
	assert.Equal(t, scannerID, moved.LocationID)
}

func TestRouterUnknownRoute(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
