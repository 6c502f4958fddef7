package outbox

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	outboxEntity "shophub/model/entity/outbox"
)

func testRepo(t *testing.T) *OutboxRepository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	repo := NewOutboxRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func TestOutboxRepository_SaveAndListPending(t *testing.T) {
	repo := testRepo(t)
	for _, key := range []string{"k1", "k2"} {
		row := &outboxEntity.PendingOrder{IdempotencyKey: key, PaymentIntentID: "pi_" + key, Payload: datatypes.JSON(`{"order":{}}`)}
		if err := repo.Save(row); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	rows, err := repo.ListPending(10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(rows) != 2 || rows[0].IdempotencyKey != "k1" {
		t.Fatalf("ListPending = %+v", rows)
	}
	if rows[0].Status != outboxEntity.StatusPending {
		t.Errorf("Status = %q", rows[0].Status)
	}
}

func TestOutboxRepository_SaveDuplicateKeyIgnored(t *testing.T) {
	repo := testRepo(t)
	repo.Save(&outboxEntity.PendingOrder{IdempotencyKey: "dup", PaymentIntentID: "pi", Payload: datatypes.JSON(`{}`)})
	if err := repo.Save(&outboxEntity.PendingOrder{IdempotencyKey: "dup", PaymentIntentID: "pi", Payload: datatypes.JSON(`{}`)}); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if n, _ := repo.CountPending(); n != 1 {
		t.Errorf("CountPending = %d, want 1", n)
	}
}

func TestOutboxRepository_MarkAttemptAndRecorded(t *testing.T) {
	repo := testRepo(t)
	row := &outboxEntity.PendingOrder{IdempotencyKey: "k", PaymentIntentID: "pi", Payload: datatypes.JSON(`{}`)}
	repo.Save(row)

	if err := repo.MarkAttempt(row.ID, "503: unavailable"); err != nil {
		t.Fatalf("MarkAttempt: %v", err)
	}
	got, err := repo.FindByKey("k")
	if err != nil || got == nil {
		t.Fatalf("FindByKey: %v %v", got, err)
	}
	if got.Attempts != 1 || got.LastError != "503: unavailable" {
		t.Errorf("after attempt = %+v", got)
	}

	if err := repo.MarkRecorded(row.ID); err != nil {
		t.Fatalf("MarkRecorded: %v", err)
	}
	rows, _ := repo.ListPending(0)
	if len(rows) != 0 {
		t.Errorf("ListPending after record = %d rows", len(rows))
	}
	if got, _ := repo.FindByKey("missing"); got != nil {
		t.Error("FindByKey missing: want nil")
	}
}

func TestOutboxRepository_MarkFailedLeavesReconcile(t *testing.T) {
	repo := testRepo(t)
	row := &outboxEntity.PendingOrder{IdempotencyKey: "k", PaymentIntentID: "pi", Payload: datatypes.JSON(`{}`)}
	repo.Save(row)

	if err := repo.MarkFailed(row.ID, "400: bad email"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if n, _ := repo.CountPending(); n != 0 {
		t.Errorf("CountPending = %d, want 0", n)
	}
	got, _ := repo.FindByKey("k")
	if got == nil || got.Status != outboxEntity.StatusFailed || got.LastError != "400: bad email" || got.Attempts != 1 {
		t.Errorf("row = %+v", got)
	}
}
