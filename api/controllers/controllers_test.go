package controllers

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
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

type apiFixture struct {
	conn     *gorm.DB
	client   *db.Client
	tracking *tracking.Service
	readers  *readers.Service
	orders   *orders.Service
	registry *registry.Service
	catalog  *catalog.Service
	audit    audit.Recorder
	logg     *logger.Logger
}

func newAPIFixture(t *testing.T) *apiFixture {
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

	rec, err := audit.NewRecorder(client)
	require.NoError(t, err)
	cat, err := catalog.NewService(client, rec, nil)
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	prober := &schema.Static{
		Tables: map[string]bool{"ordenservico": true, "rastreamentorfid": true},
		Columns: map[string]bool{
			"ordenservico.id_local":           true,
			"ordenservico.id_status_os":       true,
			"ordenservico.status":             true,
			"ordenservico.version":            true,
			"ordenservico.data_atualizacao":   true,
			"ordenservico.data_criacao":       true,
			"ordenservico.data_inicio_reparo": true,
			"ordenservico.data_fim_reparo":    true,
			"ordenservico.tempo_servico":      true,
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

	return &apiFixture{
		conn: conn, client: client, tracking: trackSvc, readers: readerSvc,
		orders: orderSvc, registry: regSvc, catalog: cat, audit: rec, logg: logg,
	}
}

func (f *apiFixture) seedWorkflow(t *testing.T) map[string]int64 {
	t.Helper()
	ids := map[string]int64{}
	for _, desc := range []string{"Recebido", "Em Diagnóstico", "Finalizado"} {
		st := models.WorkflowStatus{Description: desc}
		require.NoError(t, f.conn.Create(&st).Error)
		ids[desc] = st.ID
	}
	diag := "Em Diagnóstico"
	for _, loc := range []models.Location{
		{ScannerID: "LOC001", Label: "Recepção", Active: catalog.StatusActive},
		{ScannerID: "LOC002", Label: "Bancada de Diagnóstico", InternalStatus: &diag, Active: catalog.StatusActive},
	} {
		require.NoError(t, f.conn.Create(&loc).Error)
	}
	return ids
}

func (f *apiFixture) seedOrder(t *testing.T) (orderID int64, uid string) {
	t.Helper()
	mobile := "34998887766"
	customer := models.Customer{Name: "Maria da Silva", Mobile: &mobile, Active: "ativo"}
	require.NoError(t, f.conn.Create(&customer).Error)
	equipment := models.Equipment{CustomerID: customer.ID, Kind: "Notebook", Active: "ativo"}
	require.NoError(t, f.conn.Create(&equipment).Error)
	order := models.Order{
		CustomerID:         customer.ID,
		EquipmentID:        equipment.ID,
		ProblemDescription: "não liga",
		LocationID:         "LOC001",
		Active:             "ativo",
	}
	require.NoError(t, f.conn.Create(&order).Error)

	uid = "04A1B2C3D4E5F6"
	tag := models.Tag{UID: uid, EquipmentID: equipment.ID}
	require.NoError(t, f.conn.Create(&tag).Error)
	return order.ID, uid
}

func withRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx, ok := req.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		routeCtx = chi.NewRouteContext()
	}
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}
