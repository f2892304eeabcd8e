package costs

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLedger struct{}

func (failingLedger) Append(context.Context, Entry) error { return errors.New("db down") }

func TestRecorder(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("stamps time and appends", func(t *testing.T) {
		ledger := NewMemoryLedger()
		NewRecorder(ledger, WithClock(func() time.Time { return now })).
			Record(context.Background(), Entry{CostType: "aamva", Issuer: "urn:sp"})
		entries := ledger.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, now, entries[0].CreatedAt)
		assert.Equal(t, 1, ledger.Count("aamva"))
	})

	t.Run("swallows failures", func(t *testing.T) {
		var failed []string
		r := NewRecorder(failingLedger{}, WithLogger(logger), WithErrorHook(func(c string) { failed = append(failed, c) }))
		r.Record(context.Background(), Entry{CostType: "threatmetrix"})
		assert.Equal(t, []string{"threatmetrix"}, failed)
	})

	t.Run("nil recorder is a no-op", func(t *testing.T) {
		var r *Recorder
		assert.NotPanics(t, func() { r.Record(context.Background(), Entry{CostType: "aamva"}) })
	})
}

func TestPostgresLedgerAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ledger := NewPostgresLedger(db)

	t.Run("insert", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO sp_costs").
			WithArgs("urn:sp", "aamva", "tx-1", "trace-1", created).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := ledger.Append(context.Background(), Entry{
			CostType: "aamva", Issuer: "urn:sp", TransactionID: "tx-1", TraceID: "trace-1", CreatedAt: created,
		})
		require.NoError(t, err)
	})

	t.Run("error wrapped", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO sp_costs").WillReturnError(sql.ErrConnDone)
		err := ledger.Append(context.Background(), Entry{CostType: "aamva", CreatedAt: created})
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})

	t.Run("count", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("urn:sp", "aamva", created).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		n, err := ledger.CountSince(context.Background(), "urn:sp", "aamva", created)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
