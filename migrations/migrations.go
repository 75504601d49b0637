package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

// AutoMigrateOrderReceipts creates the order_receipts table on every shard
// if it does not exist.
func AutoMigrateOrderReceipts(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS order_receipts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			address TEXT NOT NULL,
			items JSON NOT NULL,
			total DOUBLE NOT NULL,
			gst DOUBLE NOT NULL,
			grand_total DOUBLE NOT NULL,
			status VARCHAR(20) NOT NULL,
			message VARCHAR(512) NOT NULL,
			created_at DATETIME NOT NULL,
			INDEX idx_order_receipts_username (username, id)
		);
	`
	for i, db := range dbs {
		_, err := db.Exec(query)
		// Retry creating the table
		for attempt := 0; err != nil && attempt < retries; attempt++ {
			time.Sleep(1 * time.Second)
			_, err = db.Exec(query)
		}
		if err != nil {
			return fmt.Errorf("migrate order_receipts on shard %d: %w", i, err)
		}
	}
	return nil
}
