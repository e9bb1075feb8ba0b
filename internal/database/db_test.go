package database

import (
	"context"
	"testing"

	"github.com/at-ishikawa/glossa/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.DatabaseConfig
		wantDriver string
		wantErr    bool
	}{
		{
			name: "creates mysql connection with valid config",
			cfg: config.DatabaseConfig{
				Driver:   "mysql",
				Host:     "localhost",
				Port:     3306,
				Database: "testdb",
				Username: "testuser",
				Password: "testpass",
			},
			wantDriver: "mysql",
		},
		{
			name: "empty driver defaults to mysql with pool settings",
			cfg: config.DatabaseConfig{
				Host:            "localhost",
				Port:            3306,
				Database:        "testdb",
				Username:        "testuser",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 300,
			},
			wantDriver: "mysql",
		},
		{
			name:       "creates sqlite connection",
			cfg:        config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
			wantDriver: "sqlite",
		},
		{
			name:    "sqlite without path",
			cfg:     config.DatabaseConfig{Driver: "sqlite"},
			wantErr: true,
		},
		{
			name:    "unsupported driver",
			cfg:     config.DatabaseConfig{Driver: "postgres"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Open(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			defer got.Close()

			assert.Equal(t, tt.wantDriver, got.DriverName())
		})
	}
}

func TestMigrate_SQLite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	// idempotent
	require.NoError(t, Migrate(ctx, db))

	var tables []string
	require.NoError(t, db.SelectContext(ctx, &tables,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"))
	assert.Equal(t, []string{"sense_definitions", "surface_forms", "word_entries"}, tables)
}
