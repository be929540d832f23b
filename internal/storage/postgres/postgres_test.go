package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturebot/rpg/internal/config"
)

func TestPoolConfig(t *testing.T) {
	cfg := config.DatabaseConfig{
		Enabled:         true,
		Host:            "db.internal",
		Port:            5433,
		User:            "rpg",
		Password:        "secret",
		Name:            "runs",
		SSLMode:         "disable",
		MaxConns:        7,
		MinConns:        2,
		MaxConnLifetime: 10 * time.Minute,
	}
	pc, err := poolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, 10*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "runs", pc.ConnConfig.Database)
	assert.Equal(t, ApplicationName, pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfig_ZeroLifetimeKeepsDefault(t *testing.T) {
	pc, err := poolConfig(config.DatabaseConfig{
		Host: "localhost", Port: 5432, User: "rpg", Name: "rpg", SSLMode: "disable", MaxConns: 1,
	})
	require.NoError(t, err)
	assert.Positive(t, pc.MaxConnLifetime)
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, isDuplicateKeyError(sqlStateErr("23505")))
	assert.False(t, isDuplicateKeyError(sqlStateErr("23503")))
	assert.False(t, isDuplicateKeyError(assert.AnError))
}

type sqlStateErr string

func (e sqlStateErr) Error() string    { return "sqlstate " + string(e) }
func (e sqlStateErr) SQLState() string { return string(e) }
