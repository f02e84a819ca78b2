package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablesQueryScansRowsIntoMaps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(int64(1), "alice").
		AddRow(int64(2), "bob")
	mock.ExpectQuery(`SELECT \* FROM robots WHERE action = \$1`).
		WithArgs("EMUL1").
		WillReturnRows(rows)

	tables := NewTables(db)
	got, err := tables.Query(context.Background(), "SELECT * FROM robots WHERE action = $1", "EMUL1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0]["id"])
	assert.Equal(t, "alice", got[0]["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTablesExecuteReturnsRowsAffected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE robots SET status = \$1 WHERE id = \$2`).
		WithArgs("done", "7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tables := NewTables(db)
	n, err := tables.Execute(context.Background(), "UPDATE robots SET status = $1 WHERE id = $2", "done", "7")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
