package database

import (
	"testing"

	"github.com/localnerve/jam-build-admindb/internal/config"
	"github.com/localnerve/jam-build-admindb/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDialectorByType(t *testing.T) {
	for _, dbType := range []string{"mysql", "mariadb", "postgres", "sqlite", "sqlite3", "sqlserver"} {
		d, err := Dialector(&config.Config{
			DBType:        dbType,
			DBHost:        "db",
			DBPort:        "5432",
			DBAppDatabase: "admin",
			DBAppUser:     "app",
			DBAppPassword: "secret",
		})
		require.NoError(t, err, dbType)
		assert.NotNil(t, d, dbType)
	}

	_, err := Dialector(&config.Config{DBType: "oracle"})
	assert.EqualError(t, err, "unsupported database type: oracle")
}

func TestConnectSQLiteFile(t *testing.T) {
	cfg := &config.Config{
		DBType:               "sqlite",
		DBAppDatabase:        t.TempDir() + "/admin.db",
		DBAppConnectionLimit: 5,
	}
	db, err := Connect(cfg, zap.NewNop())
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, AutoMigrate(db))
	for _, table := range []string{"documents", "document_index", "admin_views", "admin_comments"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	defer Close(db)
	assert.True(t, db.Migrator().HasIndex(&models.SavedView{}, "uniq_view_default"))
}
