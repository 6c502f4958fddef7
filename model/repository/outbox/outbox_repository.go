package outbox

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	outboxEntity "shophub/model/entity/outbox"
)

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Migrate() error {
	return r.db.AutoMigrate(&outboxEntity.PendingOrder{})
}

// Save inserts o. A second save with the same idempotency key is ignored.
func (r *OutboxRepository) Save(o *outboxEntity.PendingOrder) error {
	if o.Status == "" {
		o.Status = outboxEntity.StatusPending
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(o).Error
}

// ListPending returns up to limit unrecorded rows, oldest first.
func (r *OutboxRepository) ListPending(limit int) ([]outboxEntity.PendingOrder, error) {
	var rows []outboxEntity.PendingOrder
	q := r.db.Where("status = ?", outboxEntity.StatusPending).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *OutboxRepository) FindByKey(key string) (*outboxEntity.PendingOrder, error) {
	var row outboxEntity.PendingOrder
	err := r.db.Where("idempotency_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *OutboxRepository) MarkRecorded(id uint) error {
	return r.db.Model(&outboxEntity.PendingOrder{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": outboxEntity.StatusRecorded, "last_error": ""}).Error
}

// MarkAttempt bumps the attempt counter and stores the last failure.
func (r *OutboxRepository) MarkAttempt(id uint, lastErr string) error {
	return r.db.Model(&outboxEntity.PendingOrder{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": lastErr,
		}).Error
}

// MarkFailed takes the row out of reconcile.
func (r *OutboxRepository) MarkFailed(id uint, lastErr string) error {
	return r.db.Model(&outboxEntity.PendingOrder{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     outboxEntity.StatusFailed,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": lastErr,
		}).Error
}

func (r *OutboxRepository) CountPending() (int64, error) {
	var n int64
	err := r.db.Model(&outboxEntity.PendingOrder{}).Where("status = ?", outboxEntity.StatusPending).Count(&n).Error
	return n, err
}
