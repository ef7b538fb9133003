package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/gsqlai/internal/config"
)

func TestDSN(t *testing.T) {
	require.Equal(t, "postgres://u@h/db", dsn(config.DatabaseConfig{DSN: "postgres://u@h/db", Host: "ignored"}))
	require.Equal(t, "host=db port=5432 user=u password=p dbname=gsqlai sslmode=disable",
		dsn(config.DatabaseConfig{Host: "db", User: "u", Password: "p", DBName: "gsqlai"}))
	require.Equal(t, "host=db port=6543 user=u password=p dbname=gsqlai sslmode=require",
		dsn(config.DatabaseConfig{Host: "db", Port: 6543, User: "u", Password: "p", DBName: "gsqlai", SSLMode: "require"}))
}

func TestMigrationFilesEmbedded(t *testing.T) {
	files, err := migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	require.Equal(t, "001_gsql_generations.sql", files[0])
}
