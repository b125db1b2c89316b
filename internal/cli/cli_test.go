package cli

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"erp-admin/internal/config"
	"erp-admin/internal/infrastructure"
	"erp-admin/internal/logger"
	"erp-admin/internal/model"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dbPath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "erp.yaml")
	content := `
database:
  driver: sqlite
  dsn: ` + dbPath + `
auth:
  jwt_secret: cli-test-secret
log:
  level: error
seed:
  admin_password: admin-secret
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"serve", "migrate", "seed"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, cmd.Name())
	}
	require.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestSeedCommandCreatesCatalogAndAdmin(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "erp.db")
	cfgPath := writeConfig(t, dbPath)

	for i := 0; i < 2; i++ {
		root := NewRootCommand()
		root.SetArgs([]string{"seed", "--config", cfgPath})
		require.NoError(t, root.Execute())
	}

	db, err := infrastructure.ConnectDatabase(config.DatabaseConfig{Driver: config.DriverSQLite, DSN: dbPath}, logger.Nop())
	require.NoError(t, err)
	defer func() { _ = infrastructure.CloseDatabase(db) }()

	var permissions, admins int64
	require.NoError(t, db.Model(&model.Permission{}).Count(&permissions).Error)
	require.NoError(t, db.Model(&model.User{}).Where("username = ?", "admin").Count(&admins).Error)
	require.EqualValues(t, len(model.PermissionCatalog()), permissions)
	require.EqualValues(t, 1, admins)
}

func TestMigrateCommandRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0o600))

	root := NewRootCommand()
	root.SetArgs([]string{"migrate", "--config", path})
	err := root.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported")
}

func TestServeStopsWhenContextIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, logger.Nop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}
