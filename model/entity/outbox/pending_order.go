package outbox

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusPending  = "pending"
	StatusRecorded = "recorded"
	// StatusFailed rows were rejected by the backend or ran out of
	// attempts. They need an operator.
	StatusFailed = "failed"
)

// PendingOrder is an order whose POST /api/orders did not go through after
// payment succeeded. Payload holds the request body.
type PendingOrder struct {
	ID              uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	IdempotencyKey  string         `gorm:"column:idempotency_key;type:varchar(64);uniqueIndex;not null" json:"idempotency_key"`
	PaymentIntentID string         `gorm:"column:payment_intent_id;type:varchar(255);not null" json:"payment_intent_id"`
	Payload         datatypes.JSON `gorm:"column:payload;not null" json:"payload"`
	Attempts        int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError       string         `gorm:"column:last_error;type:text" json:"last_error"`
	Status          string         `gorm:"column:status;type:varchar(16);index;not null;default:pending" json:"status"`
	CreatedAt       time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (PendingOrder) TableName() string {
	return "shophub_pending_order"
}
