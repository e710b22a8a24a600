package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "facturio-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "facturio", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 30*time.Second, cfg.Dispatch.PDFTimeout)
	assert.Equal(t, 15*time.Second, cfg.Dispatch.EmailTimeout)
	assert.Equal(t, time.Hour, cfg.Scheduler.SweepInterval)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.SweepTimeout)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("FACTURIO_DATABASE_HOST", "db.internal")
	t.Setenv("FACTURIO_APP_PORT", "9090")
	t.Setenv("FACTURIO_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidateConnectionPool(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			MaxOpenConns: 5,
			MaxIdleConns: 10,
		},
		Scheduler: SchedulerConfig{SweepInterval: time.Hour},
	}

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_idle_conns")
}

func TestValidateSweepInterval(t *testing.T) {
	cfg := &Config{
		Database:  DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 5},
		Scheduler: SchedulerConfig{SweepInterval: 10 * time.Second},
	}

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep_interval")
}

func TestValidateProduction(t *testing.T) {
	cfg := &Config{
		App:       AppConfig{Env: "production"},
		Database:  DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 5, SSLMode: "require", Password: "secret"},
		Scheduler: SchedulerConfig{SweepInterval: time.Hour},
	}

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdf_service_url")

	cfg.Dispatch.PDFServiceURL = "http://pdf:3000"
	cfg.Dispatch.EmailServiceURL = "http://mailer:3001"
	assert.NoError(t, cfg.validate())
}

func TestValidateProductionRejectsDisabledSSL(t *testing.T) {
	cfg := &Config{
		App:       AppConfig{Env: "production"},
		Database:  DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 5, SSLMode: "disable", Password: "secret"},
		Dispatch:  DispatchConfig{PDFServiceURL: "http://pdf:3000", EmailServiceURL: "http://mailer:3001"},
		Scheduler: SchedulerConfig{SweepInterval: time.Hour},
	}

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sslmode")
}

func TestValidateRejectsMalformedServiceURL(t *testing.T) {
	cfg := &Config{
		Database:  DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 5},
		Dispatch:  DispatchConfig{PDFServiceURL: "not a url"},
		Scheduler: SchedulerConfig{SweepInterval: time.Hour},
	}

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch service URL")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "facturio",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=postgres dbname=facturio sslmode=disable",
		d.DSN())
}
