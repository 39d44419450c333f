package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/catalog"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

type fixture struct {
	svc       *Service
	client    *db.Client
	clock     time.Time
	statusIDs map[string]int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Customer{}, &models.Equipment{}, &models.Technician{},
		&models.WorkflowStatus{}, &models.Order{}, &models.AuditEntry{},
	))
	client := db.FromGorm(conn)

	statusIDs := map[string]int64{}
	for _, desc := range []string{"Recebido", "Em Diagnóstico", "Finalizado", "Cancelado"} {
		st := models.WorkflowStatus{Description: desc}
		require.NoError(t, conn.Create(&st).Error)
		statusIDs[desc] = st.ID
	}

	rec, err := audit.NewRecorder(client)
	require.NoError(t, err)
	cat, err := catalog.NewService(client, rec, nil)
	require.NoError(t, err)
	svc, err := NewService(client, cat, rec)
	require.NoError(t, err)

	f := &fixture{svc: svc, client: client, statusIDs: statusIDs,
		clock: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)}
	svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) seedCustomerEquipment(t *testing.T) (customerID, equipmentID int64) {
	t.Helper()
	customer := models.Customer{Name: "Maria", Active: "ativo"}
	require.NoError(t, f.client.DB().Create(&customer).Error)
	equipment := models.Equipment{CustomerID: customer.ID, Kind: "Notebook", Active: "ativo"}
	require.NoError(t, f.client.DB().Create(&equipment).Error)
	return customer.ID, equipment.ID
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	customerID, equipmentID := f.seedCustomerEquipment(t)

	order, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: customerID, EquipmentID: equipmentID,
		ProblemDescription: "não liga", LocationID: "loc001",
	})
	require.NoError(t, err)
	assert.Equal(t, "LOC001", order.LocationID)
	assert.Equal(t, "ativo", order.Active)

	// equipment of another customer is rejected
	otherCustomer := models.Customer{Name: "João", Active: "ativo"}
	require.NoError(t, f.client.DB().Create(&otherCustomer).Error)
	_, err = f.svc.Create(context.Background(), CreateInput{
		CustomerID: otherCustomer.ID, EquipmentID: equipmentID,
		ProblemDescription: "tela",
	})
	appErr := errors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeValidation, appErr.Code())
}

func TestUpdateStartsTimerOnDiagnosis(t *testing.T) {
	f := newFixture(t)
	customerID, equipmentID := f.seedCustomerEquipment(t)
	order, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: customerID, EquipmentID: equipmentID, ProblemDescription: "x",
	})
	require.NoError(t, err)

	diag := f.statusIDs["Em Diagnóstico"]
	updated, err := f.svc.Update(context.Background(), order.ID, UpdateInput{StatusID: &diag})
	require.NoError(t, err)
	require.NotNil(t, updated.RepairStartedAt)
	assert.Equal(t, f.clock.Unix(), updated.RepairStartedAt.Unix())

	// re-entering diagnosis does not restart an open clock
	f.clock = f.clock.Add(10 * time.Minute)
	again, err := f.svc.Update(context.Background(), order.ID, UpdateInput{StatusID: &diag})
	require.NoError(t, err)
	assert.Equal(t, updated.RepairStartedAt.Unix(), again.RepairStartedAt.Unix())
}

func TestUpdateFinalizeAccruesMinutes(t *testing.T) {
	f := newFixture(t)
	customerID, equipmentID := f.seedCustomerEquipment(t)
	order, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: customerID, EquipmentID: equipmentID, ProblemDescription: "x",
	})
	require.NoError(t, err)

	diag := f.statusIDs["Em Diagnóstico"]
	_, err = f.svc.Update(context.Background(), order.ID, UpdateInput{StatusID: &diag})
	require.NoError(t, err)

	f.clock = f.clock.Add(25 * time.Minute)
	done := f.statusIDs["Finalizado"]
	updated, err := f.svc.Update(context.Background(), order.ID, UpdateInput{StatusID: &done})
	require.NoError(t, err)
	require.NotNil(t, updated.ServiceMinutes)
	assert.Equal(t, int64(25), *updated.ServiceMinutes)
	assert.Nil(t, updated.RepairStartedAt)
	require.NotNil(t, updated.RepairFinishedAt)

	// finalizing again is a no-op for the timer
	f.clock = f.clock.Add(time.Hour)
	again, err := f.svc.Update(context.Background(), order.ID, UpdateInput{StatusID: &done})
	require.NoError(t, err)
	assert.Equal(t, int64(25), *again.ServiceMinutes)
}

func TestUpdateCancelWithoutStartCountsFromCreation(t *testing.T) {
	f := newFixture(t)
	customerID, equipmentID := f.seedCustomerEquipment(t)
	order, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: customerID, EquipmentID: equipmentID, ProblemDescription: "x",
	})
	require.NoError(t, err)

	f.clock = f.clock.Add(40 * time.Minute)
	cancelled := f.statusIDs["Cancelado"]
	updated, err := f.svc.Update(context.Background(), order.ID, UpdateInput{StatusID: &cancelled})
	require.NoError(t, err)
	require.NotNil(t, updated.ServiceMinutes)
	assert.InDelta(t, 40, *updated.ServiceMinutes, 1)
}

func TestUpdateVersionConflict(t *testing.T) {
	f := newFixture(t)
	customerID, equipmentID := f.seedCustomerEquipment(t)
	order, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: customerID, EquipmentID: equipmentID, ProblemDescription: "x",
	})
	require.NoError(t, err)

	stale := order.Version
	desc := "troca de tela"
	_, err = f.svc.Update(context.Background(), order.ID, UpdateInput{
		ProblemDescription: &desc, ExpectedVersion: &stale,
	})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), order.ID, UpdateInput{
		ProblemDescription: &desc, ExpectedVersion: &stale,
	})
	appErr := errors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeConflict, appErr.Code())
}

func TestSoftDeleteAndReactivate(t *testing.T) {
	f := newFixture(t)
	customerID, equipmentID := f.seedCustomerEquipment(t)
	order, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: customerID, EquipmentID: equipmentID, ProblemDescription: "x",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.SoftDelete(context.Background(), order.ID, "cliente desistiu"))
	active, err := f.svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := f.svc.List(context.Background(), ListFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, f.svc.Reactivate(context.Background(), order.ID))
	active, err = f.svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
