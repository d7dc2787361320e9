package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"relay-service/internal/models"
)

// ReceiptRepository records delivery receipts. Created at send time
// for direct messages only; read acknowledgement happens elsewhere.
type ReceiptRepository interface {
	CreateReceipt(ctx context.Context, messageID, userID string) (models.ReadReceipt, error)
}

// ReceiptRepo is a sqlx-backed implementation.
type ReceiptRepo struct {
	db *sqlx.DB
}

// NewReceiptRepo constructs a ReceiptRepo.
func NewReceiptRepo(db *sqlx.DB) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

// CreateReceipt inserts a receipt with delivered_at=now, read_at=null.
func (r *ReceiptRepo) CreateReceipt(ctx context.Context, messageID, userID string) (models.ReadReceipt, error) {
	receipt := models.ReadReceipt{MessageID: messageID, UserID: userID}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO read_receipts (message_id, user_id, delivered_at) VALUES ($1, $2, NOW()) RETURNING delivered_at`,
		messageID, userID).
		Scan(&receipt.DeliveredAt)
	return receipt, err
}
