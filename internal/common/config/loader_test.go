package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: technician-dispatch
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: facilities
    user: dispatch
    password: ${DISPATCH_TEST_PG_PASSWORD}
  elasticsearch:
    addresses: ["http://localhost:9200"]
  redis:
    address: localhost:6379
workers:
  assign-technician:
    enabled: true
    timeout: 15000
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("DISPATCH_TEST_PG_PASSWORD", "s3cret")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.GetURL())
	assert.True(t, cfg.Camunda.Enabled)
	assert.True(t, cfg.Notifications.InApp.Enabled)

	d := cfg.Dispatch
	assert.Equal(t, 4.2, d.MinRating)
	assert.Equal(t, 50.0, d.MaxDistanceKm)
	assert.Equal(t, 3, d.ShortlistSize)
	assert.Equal(t, []string{"online", "available"}, d.AvailableStatuses)
	assert.Equal(t, "input_order", d.TieBreak)
	assert.False(t, d.ReserveTechnician)

	w := GetWorkerConfig(cfg, "assign-technician")
	assert.Equal(t, 15000, w.Timeout)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 15*time.Second, GetDuration(w.Timeout))
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("DATABASE_POSTGRES_HOST", "db.internal")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name  string
		extra string
	}{
		{"bad tie break", "dispatch:\n  tie_break: random\n"},
		{"rating out of range", "dispatch:\n  min_rating: 7\n"},
		{"email without sender", "notifications:\n  email:\n    enabled: true\n  aws:\n    region: eu-west-1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, baseYAML+tt.extra))
			assert.Error(t, err)
		})
	}
}

func TestIsWorkerEnabled(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"assign-technician": {Enabled: false}}}

	assert.False(t, IsWorkerEnabled(cfg, "assign-technician"))
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))
}
