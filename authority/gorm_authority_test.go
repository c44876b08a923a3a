package authority

import (
	"context"
	"testing"
	"time"

	mock "github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xgenio/xgen/xlog"
)

func newSqliteAuthority(t *testing.T, opts ...GormAuthorityOption) BlockAuthority {
	logger := xlog.NewXLogger(xlog.WithLogLevel(xlog.LogLevelWarn))
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: xlog.NewGormXLogger(logger, 200*time.Millisecond),
	})
	require.NoError(t, err)
	auth, err := NewGormAuthority(db, opts...)
	require.NoError(t, err)
	return auth
}

func TestGormAuthority_ContiguousBlocks(t *testing.T) {
	auth := newSqliteAuthority(t)

	for i := int64(0); i < 5; i++ {
		start, err := auth.ReserveBlock("orders", 10)
		require.NoError(t, err)
		require.Equal(t, i*10, start)
	}

	// A second sequence owns an independent cursor.
	start, err := auth.ReserveBlock("invoices", 3)
	require.NoError(t, err)
	require.Equal(t, int64(0), start)
}

func TestGormAuthority_InitialValue(t *testing.T) {
	auth := newSqliteAuthority(t, WithGormInitialValue(1000))
	start, err := auth.ReserveBlock("orders", 10)
	require.NoError(t, err)
	require.Equal(t, int64(1000), start)
	start, err = auth.ReserveBlock("orders", 10)
	require.NoError(t, err)
	require.Equal(t, int64(1010), start)
}

func TestGormAuthority_InvalidArgs(t *testing.T) {
	auth := newSqliteAuthority(t)
	_, err := auth.ReserveBlock("", 10)
	require.ErrorIs(t, err, ErrEmptySequenceName)
	_, err = auth.ReserveBlock("orders", 0)
	require.ErrorIs(t, err, ErrInvalidBlockSize)
	_, err = auth.ReserveBlockContext(context.Background(), "orders", -5)
	require.ErrorIs(t, err, ErrInvalidBlockSize)

	_, err = NewGormAuthority(nil)
	require.Error(t, err)
}

func TestGormAuthority_SqlmockFailure(t *testing.T) {
	db, smock, err := mock.New()
	require.NoError(t, err)
	// Mock SQLite3 DB connection, the sqlite version query is essential for go-sqlite driver.
	smock.ExpectQuery(`select sqlite_version()`).
		WithArgs().
		WillReturnRows(mock.NewRows([]string{"sqlite_version()"}).
			AddRow("3.38.0"))
	gdb, err := gorm.Open(sqlite.Dialector{
		DriverName: sqlite.DriverName,
		Conn:       db,
	}, &gorm.Config{})
	require.NoError(t, err)

	auth, err := NewGormAuthority(gdb,
		WithGormSkipMigration(),
		WithGormRetryStrategy(NoRetry),
	)
	require.NoError(t, err)

	smock.ExpectQuery(`SELECT`).WillReturnError(gorm.ErrInvalidDB)
	_, err = auth.ReserveBlock("orders", 10)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrReserveBlockFailed)
}
