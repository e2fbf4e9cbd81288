package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFolioRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *FolioRepo) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewFolioRepo(db)
}

func beginTx(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *sql.Tx {
	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return tx
}

// A move only succeeds when every requested line is updated.  If one
// line was voided or invoiced between the handler's guard pass and the
// UPDATE, the whole batch must fail so it never half-applies.
func TestMoveTransactionsTxAllOrNone(t *testing.T) {
	db, mock, repo := setupFolioRepo(t)
	defer db.Close()

	tx := beginTx(t, db, mock)
	mock.ExpectExec(`UPDATE folio_transactions SET folio_id`).
		WithArgs(9, 1, 2, 3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectRollback()

	err := repo.MoveTransactionsTx(context.Background(), tx, []uint64{1, 2, 3}, 9)
	assert.ErrorIs(t, err, ErrInvalidState)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveTransactionsTxAllRowsMoved(t *testing.T) {
	db, mock, repo := setupFolioRepo(t)
	defer db.Close()

	tx := beginTx(t, db, mock)
	mock.ExpectExec(`UPDATE folio_transactions SET folio_id`).
		WithArgs(9, 1, 2, 3).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := repo.MoveTransactionsTx(context.Background(), tx, []uint64{1, 2, 3}, 9)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveTransactionsTxEmptyBatch(t *testing.T) {
	db, mock, repo := setupFolioRepo(t)
	defer db.Close()

	tx := beginTx(t, db, mock)
	mock.ExpectRollback()

	err := repo.MoveTransactionsTx(context.Background(), tx, nil, 9)
	assert.ErrorIs(t, err, ErrValidation)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Voiding a line that is already void or already invoiced matches zero
// rows, which must surface as a state conflict rather than silence.
func TestVoidTransactionTxZeroRows(t *testing.T) {
	db, mock, repo := setupFolioRepo(t)
	defer db.Close()

	tx := beginTx(t, db, mock)
	mock.ExpectExec(`UPDATE folio_transactions SET is_void = 1`).
		WithArgs("GUEST-DISPUTE", 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.VoidTransactionTx(context.Background(), tx, 5, "GUEST-DISPUTE")
	assert.ErrorIs(t, err, ErrInvalidState)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
