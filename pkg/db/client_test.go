package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/logger"
)

type widget struct {
	ID   int
	Name string
}

func openSQLite(t *testing.T, cfg *gorm.Config) *gorm.DB {
	t.Helper()
	if cfg == nil {
		cfg = &gorm.Config{}
	}
	cfg.SkipDefaultTransaction = true
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), cfg)
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return conn
}

func countWidgets(t *testing.T, conn *gorm.DB, name string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&widget{}).Where("name = ?", name).Count(&n).Error)
	return n
}

func TestWithTxCommitsOnNil(t *testing.T) {
	conn := openSQLite(t, nil)
	client := NewFromGorm(conn)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&widget{Name: "kept"}).Error
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, countWidgets(t, conn, "kept"))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	conn := openSQLite(t, nil)
	client := NewFromGorm(conn)
	boom := errors.New("boom")

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&widget{Name: "dropped"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, countWidgets(t, conn, "dropped"))
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	conn := openSQLite(t, nil)
	client := NewFromGorm(conn)

	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&widget{Name: "panicked"}).Error)
			panic("boom")
		})
	})
	assert.Zero(t, countWidgets(t, conn, "panicked"))
}

func TestPing(t *testing.T) {
	assert.NoError(t, NewFromGorm(openSQLite(t, nil)).Ping(context.Background()))
}

func TestForUpdateIsNoopOnSQLite(t *testing.T) {
	var rows []widget
	assert.NoError(t, ForUpdate(openSQLite(t, nil)).Find(&rows).Error)
}

func TestQueryLoggerReportsSlowStatementsButNotMissingRows(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	conn := openSQLite(t, &gorm.Config{Logger: newQueryLogger(logg, time.Nanosecond)})

	require.NoError(t, conn.Create(&widget{Name: "slow"}).Error)
	assert.Contains(t, buf.String(), "db.slow_query")

	buf.Reset()
	quiet := openSQLite(t, &gorm.Config{Logger: newQueryLogger(logg, 0)})
	var w widget
	err := quiet.Where("name = ?", "absent").First(&w).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "db.query_failed")
}

func TestQueryLoggerOmitsBoundValues(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	conn := openSQLite(t, &gorm.Config{Logger: newQueryLogger(logg, time.Nanosecond)})
	secret := strings.Repeat("deadbeef", 8)

	var w widget
	err := conn.Where("name = ?", secret).First(&w).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, conn.Create(&widget{Name: secret}).Error)

	out := buf.String()
	assert.Contains(t, out, "db.slow_query")
	assert.Contains(t, out, "name = ?")
	assert.NotContains(t, out, secret)
}
