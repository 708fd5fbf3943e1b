package db

import (
	"path/filepath"
	"testing"

	"github.com/shinyyama/carbon-credit-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	base := config.Config{DBUser: "u", DBPassword: "p", DBName: "carbon", DBPort: "3306"}
	tests := []struct {
		name     string
		host     string
		instance string
		wantAddr string
	}{
		{"plain host", "db.internal", "", "tcp(db.internal:3306)"},
		{"tcp prefix", "tcp(10.0.0.1:3307)", "", "tcp(10.0.0.1:3307)"},
		{"unix prefix", "unix(/tmp/mysql.sock)", "", "unix(/tmp/mysql.sock)"},
		{"socket path", "/cloudsql/p:r:i", "", "unix(/cloudsql/p:r:i)"},
		{"instance", "ignored", "p:r:i", "unix(/cloudsql/p:r:i)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.DBHost = tt.host
			cfg.InstanceConnectionName = tt.instance
			want := "u:p@" + tt.wantAddr + "/carbon?charset=utf8mb4&parseTime=True&loc=Local"
			if got := BuildDSN(&cfg); got != want {
				t.Fatalf("got=%s want=%s", got, want)
			}
		})
	}
}

func TestConnectSQLiteAndMigrate(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "carbon.db")}
	conn, err := Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))
	assert.True(t, conn.Migrator().HasTable("kv_entries"))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestConnectMySQLRequiresCredentials(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}
