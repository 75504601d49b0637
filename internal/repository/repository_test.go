package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
	"storefront-service/internal/sharding"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestNewReceiptRepository_NeedsDB(t *testing.T) {
	_, err := repository.NewReceiptRepository(nil, nil)
	assert.Error(t, err)
}

func TestCreateReceipt(t *testing.T) {
	db, mock := newMockDB(t)
	repo, err := repository.NewReceiptRepository([]*sql.DB{db}, sharding.NewShardRouter(1))
	require.NoError(t, err)

	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	receipt := &entity.OrderReceipt{
		Username:   "asha",
		Address:    "12 MG Road",
		Items:      []entity.Product{{Name: "Top1", Price: 499}},
		Total:      499,
		GST:        89.82,
		GrandTotal: 588.82,
		Status:     entity.ReceiptConfirmed,
		Message:    "Order placed",
		CreatedAt:  createdAt,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_receipts`)).
		WithArgs("asha", "12 MG Road", `[{"name":"Top1","price":499,"image":"","specs":""}]`,
			499.0, 89.82, 588.82, "confirmed", "Order placed", createdAt).
		WillReturnResult(sqlmock.NewResult(42, 1))

	got, err := repo.CreateReceipt(context.Background(), receipt)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo, err := repository.NewReceiptRepository([]*sql.DB{db}, nil)
	require.NoError(t, err)

	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "username", "address", "items", "total", "gst", "grand_total", "status", "message", "created_at"}).
		AddRow(2, "asha", "12 MG Road", []byte(`[{"name":"Top1","price":499,"image":"","specs":""}]`), 499.0, 89.82, 588.82, "failed", "Order failed.", createdAt).
		AddRow(1, "asha", "12 MG Road", []byte(`[]`), 0.0, 0.0, 0.0, "confirmed", "ok", createdAt)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, address, items`)).
		WithArgs("asha", 20).
		WillReturnRows(rows)

	receipts, err := repo.ListByUsername(context.Background(), "asha", 20)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	assert.Equal(t, int64(2), receipts[0].ID)
	assert.Equal(t, entity.ReceiptFailed, receipts[0].Status)
	assert.Equal(t, []entity.Product{{Name: "Top1", Price: 499}}, receipts[0].Items)
	assert.Equal(t, createdAt, receipts[0].CreatedAt)
	assert.Empty(t, receipts[1].Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUsername_RoutesToShard(t *testing.T) {
	dbA, mockA := newMockDB(t)
	dbB, mockB := newMockDB(t)
	router := sharding.NewShardRouter(2)
	repo, err := repository.NewReceiptRepository([]*sql.DB{dbA, dbB}, router)
	require.NoError(t, err)

	target := mockA
	if router.GetShard("ravi") == 1 {
		target = mockB
	}
	target.ExpectQuery(regexp.QuoteMeta(`SELECT id`)).
		WithArgs("ravi", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "address", "items", "total", "gst", "grand_total", "status", "message", "created_at"}))

	receipts, err := repo.ListByUsername(context.Background(), "ravi", 5)
	require.NoError(t, err)
	assert.Empty(t, receipts)
	assert.NoError(t, mockA.ExpectationsWereMet())
	assert.NoError(t, mockB.ExpectationsWereMet())
}
