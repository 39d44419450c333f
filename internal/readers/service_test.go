package readers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/config"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db/models"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

func testKeyConfig() config.ReaderKeyConfig {
	// tiny parameters keep hashing fast in tests
	return config.ReaderKeyConfig{
		ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1,
		ArgonSaltLen: 8, ArgonKeyLen: 16,
	}
}

func newTestService(t *testing.T) (*Service, *db.Client) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Reader{}, &models.Location{}, &models.LastSeenUID{}, &models.AuditEntry{},
	))
	client := db.FromGorm(conn)
	svc, err := NewService(client, testKeyConfig(), audit.Noop{})
	require.NoError(t, err)
	return svc, client
}

func TestUpsertCreatesReaderWithKey(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	scanner := "LOC002"

	reg, err := svc.Upsert(ctx, UpsertInput{Code: "READER-02", ScannerID: &scanner})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Key, "new readers get a plaintext key once")
	assert.NotEqual(t, reg.Key, reg.Reader.APIKeyHash)

	// updating the same code keeps the existing key
	name := "Bancada 2"
	reg2, err := svc.Upsert(ctx, UpsertInput{Code: "READER-02", Name: &name})
	require.NoError(t, err)
	assert.Empty(t, reg2.Key)
	assert.Equal(t, reg.Reader.ID, reg2.Reader.ID)
	require.NotNil(t, reg2.Reader.ScannerID)
	assert.Equal(t, "LOC002", *reg2.Reader.ScannerID)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	scanner := "LOC002"

	reg, err := svc.Upsert(ctx, UpsertInput{Code: "READER-02", ScannerID: &scanner})
	require.NoError(t, err)

	id, err := svc.Authenticate(ctx, "READER-02", reg.Key)
	require.NoError(t, err)
	assert.Equal(t, "READER-02", id.Code)
	assert.Equal(t, "LOC002", id.ScannerID)

	_, err = svc.Authenticate(ctx, "READER-02", "wrong-key")
	appErr := errors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeUnauthorized, appErr.Code())

	_, err = svc.Authenticate(ctx, "ghost", reg.Key)
	appErr = errors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeUnauthorized, appErr.Code())
}

func TestAuthenticateResolvesScannerThroughLocation(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	loc := models.Location{ScannerID: "LOC005", Label: "Mesa de Reparo", Active: "ativo"}
	require.NoError(t, client.DB().Create(&loc).Error)

	reg, err := svc.Upsert(ctx, UpsertInput{Code: "READER-05", LocationID: &loc.ID})
	require.NoError(t, err)

	id, err := svc.Authenticate(ctx, "READER-05", reg.Key)
	require.NoError(t, err)
	assert.Equal(t, "LOC005", id.ScannerID)
}

func TestResetKeyInvalidatesOldKey(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	scanner := "LOC001"

	reg, err := svc.Upsert(ctx, UpsertInput{Code: "R1", ScannerID: &scanner})
	require.NoError(t, err)

	rotated, err := svc.ResetKey(ctx, "R1")
	require.NoError(t, err)
	assert.NotEmpty(t, rotated.Key)
	assert.NotEqual(t, reg.Key, rotated.Key)

	_, err = svc.Authenticate(ctx, "R1", reg.Key)
	assert.Error(t, err)
	_, err = svc.Authenticate(ctx, "R1", rotated.Key)
	assert.NoError(t, err)
}

func TestDeactivateBlocksAuthentication(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	scanner := "LOC001"

	reg, err := svc.Upsert(ctx, UpsertInput{Code: "R1", ScannerID: &scanner})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, "R1"))

	_, err = svc.Authenticate(ctx, "R1", reg.Key)
	appErr := errors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeUnauthorized, appErr.Code())
}

func TestLastSeenRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.TouchLastSeen(ctx, "R1", "04A1B2C3"))
	require.NoError(t, svc.TouchLastSeen(ctx, "R1", "DEADBEEF"))

	row, err := svc.LastSeen(ctx, "R1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "DEADBEEF", row.UID, "last write wins")

	// stale entries are treated as absent
	svc.now = func() time.Time { return now.Add(5 * time.Minute) }
	_, err = svc.LastSeen(ctx, "R1", time.Minute)
	appErr := errors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeNotFound, appErr.Code())

	_, err = svc.LastSeen(ctx, "R2", time.Minute)
	assert.Error(t, err)
}
