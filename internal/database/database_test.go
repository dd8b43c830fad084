package database_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// gorm pings once while opening
	mock.ExpectPing()
	db, err := database.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), false)
	require.NoError(t, err)
	return db, mock
}

func TestHealthCheck(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectPing()
	assert.NoError(t, database.HealthCheck(context.Background(), db))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, database.HealthCheck(context.Background(), db))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSQLite(t *testing.T) {
	cfg := &config.Config{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "foodgram.db"),
		LogLevel: "info",
	}

	db, err := database.New(cfg)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db, "does-not-matter"))

	for _, model := range models.All() {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}

func TestSQLiteEnforcesForeignKeys(t *testing.T) {
	db := testhelpers.SetupTestDB(t)

	err := db.Create(&models.Recipe{AuthorID: 42, Name: "Orphan", Image: "x", Text: "x", CookingTime: 1}).Error
	assert.Error(t, err)
}

func TestUniqueViolationIsTranslated(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	testhelpers.CreateIngredient(t, db, "Salt", "g")

	err := db.Create(&models.Ingredient{Name: "Salt", MeasurementUnit: "kg"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000002_more.up.sql", "000001_init.up.sql", "000001_init.down.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.up.sql"), 0o700))

	files, err := database.MigrationFiles(dir, ".up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init.up.sql", "000002_more.up.sql"}, files)

	_, err = database.MigrationFiles(filepath.Join(dir, "missing"), ".up.sql")
	assert.Error(t, err)
}

func TestRepositoryMigrationsArePaired(t *testing.T) {
	ups, err := database.MigrationFiles(testhelpers.MigrationsDir(), ".up.sql")
	require.NoError(t, err)
	downs, err := database.MigrationFiles(testhelpers.MigrationsDir(), ".down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestPostgresMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	db := testhelpers.SetupPostgresDB(t)

	for _, model := range models.All() {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}

	require.NoError(t, database.RunMigrations(db, testhelpers.MigrationsDir()))
	var applied int64
	require.NoError(t, db.Table("schema_migrations").Count(&applied).Error)
	assert.Equal(t, int64(1), applied)
}
