package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"erp-admin/internal/config"
	"erp-admin/internal/infrastructure"
	"erp-admin/internal/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	AdminUsername = "admin"
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin-secret"
)

// NewDB はテストごとに独立したsqliteデータベースを作成し、スキーマを作成する
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "erp.db") + "?_busy_timeout=5000"
	db, err := infrastructure.ConnectDatabase(config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		DSN:          dsn,
		MaxIdleConns: 2,
		MaxOpenConns: 4,
		LogLevel:     "silent",
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = infrastructure.CloseDatabase(db) })

	require.NoError(t, infrastructure.MigrateAllSchemas(db))
	return db
}

// NewSeededDB adds the permission catalog, default roles and an admin user.
func NewSeededDB(t testing.TB) *gorm.DB {
	t.Helper()

	db := NewDB(t)
	seeder := infrastructure.NewSeedDataManager(db, config.SeedConfig{
		Enabled:       true,
		AdminUsername: AdminUsername,
		AdminEmail:    AdminEmail,
		AdminPassword: AdminPassword,
	}, logger.Nop())
	require.NoError(t, seeder.SeedAll(context.Background()))
	return db
}
