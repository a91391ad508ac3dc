package postgres

import (
	"testing"

	"skillpulse/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		DBHost:     "db.local",
		DBPort:     "5433",
		DBName:     "skillpulse",
		DBUser:     "ingest",
		DBPassword: "p@ss word",
		DBSSLMode:  "disable",
	}, "skillpulse-ingest")

	pcfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db.local", pcfg.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pcfg.ConnConfig.Port)
	assert.Equal(t, "skillpulse", pcfg.ConnConfig.Database)
	assert.Equal(t, "ingest", pcfg.ConnConfig.User)
	assert.Equal(t, "p@ss word", pcfg.ConnConfig.Password)
	assert.Equal(t, "skillpulse-ingest", pcfg.ConnConfig.RuntimeParams["application_name"])
}
