package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

func newTestService(t *testing.T) (*Service, *db.Client) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Customer{}, &models.Equipment{}, &models.Technician{},
		&models.Tag{}, &models.AuditEntry{},
	))
	client := db.FromGorm(conn)
	svc, err := NewService(client, audit.Noop{})
	require.NoError(t, err)
	return svc, client
}

func seedEquipment(t *testing.T, svc *Service) (customerID, equipmentID int64) {
	t.Helper()
	ctx := context.Background()
	customer, err := svc.CreateCustomer(ctx, CustomerInput{Name: "Maria da Silva"})
	require.NoError(t, err)
	equipment, err := svc.CreateEquipment(ctx, EquipmentInput{CustomerID: customer.ID, Kind: "Notebook"})
	require.NoError(t, err)
	return customer.ID, equipment.ID
}

func TestRegisterTag(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, equipmentID := seedEquipment(t, svc)

	tag, err := svc.RegisterTag(ctx, TagInput{UID: "04 a1 b2 c3", EquipmentID: equipmentID})
	require.NoError(t, err)
	assert.Equal(t, "04A1B2C3", tag.UID)

	// unknown equipment is rejected
	_, err = svc.RegisterTag(ctx, TagInput{UID: "04A1B2C3", EquipmentID: 999})
	appErr := errors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeNotFound, appErr.Code())
}

func TestRegisterTagRepointsExisting(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, first := seedEquipment(t, svc)
	_, second := seedEquipment(t, svc)

	_, err := svc.RegisterTag(ctx, TagInput{UID: "04A1B2C3", EquipmentID: first})
	require.NoError(t, err)
	tag, err := svc.RegisterTag(ctx, TagInput{UID: "04A1B2C3", EquipmentID: second})
	require.NoError(t, err)
	assert.Equal(t, second, tag.EquipmentID)

	all, err := svc.ListTags(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1, "registering twice never duplicates the tag")
}

func TestDeleteTag(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, equipmentID := seedEquipment(t, svc)

	_, err := svc.RegisterTag(ctx, TagInput{UID: "04A1B2C3", EquipmentID: equipmentID})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTag(ctx, "04A1B2C3"))

	_, err = svc.GetTag(ctx, "04A1B2C3")
	require.Error(t, err)
	assert.Error(t, svc.DeleteTag(ctx, "04A1B2C3"))
}

func TestReserveTagCode(t *testing.T) {
	svc, _ := newTestService(t)
	code, err := svc.ReserveTagCode(context.Background())
	require.NoError(t, err)
	assert.Len(t, code, 16)

	other, err := svc.ReserveTagCode(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestCustomerLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	customer, err := svc.CreateCustomer(ctx, CustomerInput{Name: "  João Pereira  "})
	require.NoError(t, err)
	assert.Equal(t, "João Pereira", customer.Name)

	mobile := "34998887766"
	updated, err := svc.UpdateCustomer(ctx, customer.ID, CustomerInput{Mobile: &mobile})
	require.NoError(t, err)
	require.NotNil(t, updated.Mobile)
	assert.Equal(t, "João Pereira", updated.Name, "empty name keeps the current one")

	require.NoError(t, svc.SetCustomerActive(ctx, customer.ID, false, "mudou de cidade"))
	active, err := svc.ListCustomers(ctx, "", false)
	require.NoError(t, err)
	assert.Empty(t, active)

	found, err := svc.ListCustomers(ctx, "pereira", true)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestCreateEquipmentRequiresActiveCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	customerID, _ := seedEquipment(t, svc)

	require.NoError(t, svc.SetCustomerActive(ctx, customerID, false, ""))
	_, err := svc.CreateEquipment(ctx, EquipmentInput{CustomerID: customerID, Kind: "Celular"})
	appErr := errors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeValidation, appErr.Code())
}

func TestTechnicianLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tech, err := svc.CreateTechnician(ctx, TechnicianInput{Name: "Carlos"})
	require.NoError(t, err)

	specialty := "placas"
	_, err = svc.UpdateTechnician(ctx, tech.ID, TechnicianInput{Specialty: &specialty})
	require.NoError(t, err)

	require.NoError(t, svc.SetTechnicianActive(ctx, tech.ID, false, ""))
	rows, err := svc.ListTechnicians(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
