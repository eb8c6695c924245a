package db

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type ledgerRow struct {
	ID   int
	Name string
}

func openMemory(t *testing.T, name string) *Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&ledgerRow{}))
	return Wrap(conn)
}

func rows(t *testing.T, c *Client) int64 {
	t.Helper()
	var n int64
	require.NoError(t, c.DB().Model(&ledgerRow{}).Count(&n).Error)
	return n
}

func TestWithTx(t *testing.T) {
	client := openMemory(t, "withtx")
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&ledgerRow{Name: "kept"}).Error
	}))
	assert.EqualValues(t, 1, rows(t, client))

	boom := errors.New("boom")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&ledgerRow{Name: "dropped"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, rows(t, client), "error rolls back")

	assert.Panics(t, func() {
		_ = client.WithTx(ctx, func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&ledgerRow{Name: "panicked"}).Error)
			panic("boom")
		})
	})
	assert.EqualValues(t, 1, rows(t, client), "panic rolls back")
}

func TestPingAndDialect(t *testing.T) {
	client := openMemory(t, "ping")
	assert.NoError(t, client.Ping(context.Background()))
	assert.True(t, client.IsSQLite())
}

func TestNewWithSQLite(t *testing.T) {
	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "db-test", Output: &logs})

	client, err := New(context.Background(), config.DBConfig{Driver: "sqlite", DSN: "file:newclient?mode=memory&cache=shared", MaxOpenConns: 1}, logg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.True(t, client.IsSQLite())
	assert.Contains(t, logs.String(), `"driver":"sqlite"`)

	_, err = New(context.Background(), config.DBConfig{}, logg)
	assert.Error(t, err)
}
