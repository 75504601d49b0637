package entity

import "time"

// OrderRequest is the payload POSTed to the order gateway.
type OrderRequest struct {
	Username   string    `json:"username"`
	Address    string    `json:"address"`
	Items      []Product `json:"items"`
	Total      float64   `json:"total"`
	GST        float64   `json:"gst"`
	GrandTotal float64   `json:"grandTotal"`
}

// GatewayResponse is the {success, message} shape every gateway endpoint returns.
type GatewayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const (
	ReceiptConfirmed = "confirmed"
	ReceiptFailed    = "failed"
)

type OrderReceipt struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Address    string    `json:"address"`
	Items      []Product `json:"items"`
	Total      float64   `json:"total"`
	GST        float64   `json:"gst"`
	GrandTotal float64   `json:"grandTotal"`
	Status     string    `json:"status"` // "confirmed" or "failed"
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

/*
Mysql Table

CREATE TABLE order_receipts (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(255) NOT NULL,
	address TEXT NOT NULL,
	items JSON NOT NULL,
	total DOUBLE NOT NULL,
	gst DOUBLE NOT NULL,
	grand_total DOUBLE NOT NULL,
	status VARCHAR(20) NOT NULL,
	message VARCHAR(512) NOT NULL,
	created_at DATETIME NOT NULL
);

*/
