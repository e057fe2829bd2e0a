package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"orubacontacts/internal/models"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite", ""} {
		d, err := dialector(Config{Driver: driver, DBName: "contacts"})
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	_, err := dialector(Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestConnectAndMigrate_SQLite(t *testing.T) {
	cfg := Config{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}

	db, err := Connect(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, Migrate(db, zap.NewNop()))
	// повторная миграция не должна падать на существующих индексах
	require.NoError(t, Migrate(db, zap.NewNop()))

	assert.True(t, db.Migrator().HasTable(&models.RawRecord{}))
	assert.True(t, db.Migrator().HasTable(&models.HospitalReference{}))
	assert.True(t, db.Migrator().HasIndex(&models.RawRecord{}, "idx_raw_records_queue"))

	record := models.RawRecord{Title: "Ankara", ListName: "Kamu"}
	require.NoError(t, db.Create(&record).Error)
	assert.Len(t, record.ID, 36)

	dup := models.RawRecord{Title: "Ankara", ListName: "Kamu"}
	err = db.Create(&dup).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestConnect_RecordNotFoundIsQuiet(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := Config{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}

	db, err := Connect(cfg, zap.New(core))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, Migrate(db, zap.NewNop()))
	logs.TakeAll()

	var record models.RawRecord
	err = db.Take(&record, "id = ?", "missing").Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.Len(), "a miss on an empty table is not logged")

	// обычные ошибки по-прежнему попадают в лог
	err = db.Raw("SELECT * FROM no_such_table").Scan(&record).Error
	assert.Error(t, err)
	assert.NotZero(t, logs.Len())
}
