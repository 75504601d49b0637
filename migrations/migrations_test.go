package migrations_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/migrations"
)

func TestAutoMigrateOrderReceipts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS order_receipts")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, migrations.AutoMigrateOrderReceipts(0, db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoMigrateOrderReceipts_ReportsFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("access denied"))

	err = migrations.AutoMigrateOrderReceipts(0, db)
	assert.ErrorContains(t, err, "access denied")
}
