package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"storefront-service/internal/entity"
	"storefront-service/internal/sharding"
)

// ReceiptRepository stores order submission receipts, sharded by username.
// DSNs need parseTime=true for created_at to scan into time.Time.
type ReceiptRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewReceiptRepository(dbShards []*sql.DB, router *sharding.ShardRouter) (*ReceiptRepository, error) {
	if len(dbShards) == 0 {
		return nil, errors.New("receipt repository needs at least one database")
	}
	if router == nil || router.ShardCount != len(dbShards) {
		router = sharding.NewShardRouter(len(dbShards))
	}
	return &ReceiptRepository{dbShards, router}, nil
}

func (r *ReceiptRepository) shard(username string) *sql.DB {
	return r.dbShards[r.router.GetShard(username)]
}

func (r *ReceiptRepository) CreateReceipt(ctx context.Context, receipt *entity.OrderReceipt) (*entity.OrderReceipt, error) {
	items, err := json.Marshal(receipt.Items)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO order_receipts (username, address, items, total, gst, grand_total, status, message, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.shard(receipt.Username).ExecContext(ctx, query,
		receipt.Username, receipt.Address, string(items), receipt.Total, receipt.GST, receipt.GrandTotal,
		receipt.Status, receipt.Message, receipt.CreatedAt)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	receipt.ID = id
	return receipt, nil
}

// ListByUsername returns the newest receipts first, at most limit of them.
func (r *ReceiptRepository) ListByUsername(ctx context.Context, username string, limit int) ([]entity.OrderReceipt, error) {
	query := `SELECT id, username, address, items, total, gst, grand_total, status, message, created_at FROM order_receipts WHERE username = ? ORDER BY id DESC LIMIT ?`

	rows, err := r.shard(username).QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := []entity.OrderReceipt{}
	for rows.Next() {
		var (
			receipt entity.OrderReceipt
			items   []byte
		)
		err := rows.Scan(&receipt.ID, &receipt.Username, &receipt.Address, &items, &receipt.Total, &receipt.GST,
			&receipt.GrandTotal, &receipt.Status, &receipt.Message, &receipt.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &receipt.Items); err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}

	return receipts, rows.Err()
}
