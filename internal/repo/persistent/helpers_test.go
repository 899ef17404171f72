package persistent

import (
	"testing"

	"github.com/andreyxaxa/memories-server/pkg/postgres"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*postgres.Postgres, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	return postgres.NewWithPool(mock), mock
}
