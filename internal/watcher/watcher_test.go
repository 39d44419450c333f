package watcher

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/notify"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/config"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

type stubDispatcher struct {
	calls []notify.LocationChange
	fail  bool
}

func (d *stubDispatcher) NotifyLocationChange(_ context.Context, change notify.LocationChange) (notify.Result, error) {
	if d.fail {
		return notify.ResultFailed, errors.New(errors.CodeDependency, "gateway down")
	}
	d.calls = append(d.calls, change)
	return notify.ResultOK, nil
}

type fixture struct {
	watcher    *Watcher
	client     *db.Client
	dispatcher *stubDispatcher
}

func newFixture(t *testing.T, bootstrap bool) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Customer{}, &models.Equipment{}, &models.WorkflowStatus{},
		&models.Location{}, &models.Order{},
		&models.NotifyCheckpoint{}, &models.SendLog{},
	))
	client := db.FromGorm(conn)
	dispatcher := &stubDispatcher{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	w, err := New(client, dispatcher, logg, config.WatcherConfig{
		PollInterval: time.Second, Bootstrap: bootstrap,
	})
	require.NoError(t, err)
	return &fixture{watcher: w, client: client, dispatcher: dispatcher}
}

func (f *fixture) seedOrder(t *testing.T, location string) int64 {
	t.Helper()
	conn := f.client.DB()
	mobile := "34998887766"
	customer := models.Customer{Name: "Maria", Mobile: &mobile, Active: "ativo"}
	require.NoError(t, conn.Create(&customer).Error)
	equipment := models.Equipment{CustomerID: customer.ID, Kind: "Notebook", Active: "ativo"}
	require.NoError(t, conn.Create(&equipment).Error)
	order := models.Order{
		CustomerID: customer.ID, EquipmentID: equipment.ID,
		ProblemDescription: "x", LocationID: location, Active: "ativo",
	}
	require.NoError(t, conn.Create(&order).Error)
	return order.ID
}

func (f *fixture) moveOrder(t *testing.T, orderID int64, location string) {
	t.Helper()
	require.NoError(t, f.client.DB().Model(&models.Order{}).
		Where("id_os = ?", orderID).Update("id_local", location).Error)
}

func TestBootstrapSeedsWithoutSending(t *testing.T) {
	f := newFixture(t, true)
	orderID := f.seedOrder(t, "LOC001")

	sent, err := f.watcher.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, f.dispatcher.calls)

	f.moveOrder(t, orderID, "LOC002")
	sent, err = f.watcher.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, f.dispatcher.calls, 1)
	assert.Equal(t, "LOC002", f.dispatcher.calls[0].LocationID)
}

func TestStableOrderSendsNothing(t *testing.T) {
	f := newFixture(t, true)
	f.seedOrder(t, "LOC001")

	_, err := f.watcher.RunOnce(context.Background())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		sent, err := f.watcher.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Zero(t, sent)
	}
	assert.Empty(t, f.dispatcher.calls)
}

func TestFailedSendRetriesNextSweep(t *testing.T) {
	f := newFixture(t, true)
	orderID := f.seedOrder(t, "LOC001")
	_, err := f.watcher.RunOnce(context.Background())
	require.NoError(t, err)

	f.moveOrder(t, orderID, "LOC007")
	f.dispatcher.fail = true
	sent, err := f.watcher.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	f.dispatcher.fail = false
	sent, err = f.watcher.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "checkpoint only advances after a delivery")
}

func TestSendLogIsWritten(t *testing.T) {
	f := newFixture(t, false)
	orderID := f.seedOrder(t, "LOC002")

	sent, err := f.watcher.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "without bootstrap even the first sweep notifies")

	var logs []models.SendLog
	require.NoError(t, f.client.DB().Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, orderID, logs[0].OrderID)
	assert.Equal(t, "5534998887766", notifyDestination(logs[0].Destination))
	assert.NotEmpty(t, logs[0].Message)
}

// the log stores the raw destination; normalization happens in the gateway
func notifyDestination(raw string) string {
	n, err := notify.NormalizePhone(raw)
	if err != nil {
		return raw
	}
	return n
}
