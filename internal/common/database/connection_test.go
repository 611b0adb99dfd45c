package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestOpen_SQLite(t *testing.T) {
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"), logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.NoError(t, sqlDB.Ping())

	require.NoError(t, Close(db))
	assert.Error(t, sqlDB.Ping())
}

func TestOpen_UnsupportedType(t *testing.T) {
	_, err := Open("mysql", "", logger.Silent)
	assert.ErrorContains(t, err, "unsupported database type")
}
