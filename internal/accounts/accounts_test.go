package accounts

import (
	"errors"
	"testing"

	"github.com/verdex/verdex-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&Account{}, &EscrowEntry{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestCreditCreatesAccount(t *testing.T) {
	db := newTestDB(t)

	if err := Credit(db, "alice", 100); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if err := Credit(db, "alice", 50); err != nil {
		t.Fatalf("second credit failed: %v", err)
	}

	account, err := GetAccount(db, "alice")
	if err != nil || account.Balance != 150 {
		t.Fatalf("unexpected account state: %+v (err %v)", account, err)
	}
}

func TestDebit(t *testing.T) {
	db := newTestDB(t)

	if err := Credit(db, "alice", 100); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if err := Debit(db, "alice", 60); err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	if err := Debit(db, "alice", 41); !errors.Is(err, types.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	account, _ := GetAccount(db, "alice")
	if account.Balance != 40 {
		t.Fatalf("rejected debit changed balance: %d", account.Balance)
	}

	if err := Debit(db, "nobody", 1); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown account, got %v", err)
	}
}

func TestEscrowLifecycle(t *testing.T) {
	db := newTestDB(t)

	if err := LockEscrow(db, "ORD_1", 100); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if amount, _ := EscrowAmount(db, "ORD_1"); amount != 100 {
		t.Fatalf("expected 100 locked, got %d", amount)
	}

	if err := ReduceEscrow(db, "ORD_1", 30); err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	if amount, _ := EscrowAmount(db, "ORD_1"); amount != 70 {
		t.Fatalf("expected 70 locked, got %d", amount)
	}

	if err := ReduceEscrow(db, "ORD_1", 71); !errors.Is(err, types.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds over-reducing, got %v", err)
	}

	released, err := ReleaseEscrow(db, "ORD_1")
	if err != nil || released != 70 {
		t.Fatalf("expected release of 70, got %d (err %v)", released, err)
	}
	if amount, _ := EscrowAmount(db, "ORD_1"); amount != 0 {
		t.Fatalf("escrow survived release: %d", amount)
	}

	// Releasing again is a no-op returning zero.
	released, err = ReleaseEscrow(db, "ORD_1")
	if err != nil || released != 0 {
		t.Fatalf("expected empty second release, got %d (err %v)", released, err)
	}
}

func TestReduceEscrowToZeroRemovesEntry(t *testing.T) {
	db := newTestDB(t)

	if err := LockEscrow(db, "ORD_2", 50); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if err := ReduceEscrow(db, "ORD_2", 50); err != nil {
		t.Fatalf("reduce failed: %v", err)
	}

	if err := ReduceEscrow(db, "ORD_2", 1); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after entry removal, got %v", err)
	}
}

func TestDepositService(t *testing.T) {
	db := newTestDB(t)
	service := NewService(db)

	account, err := service.Deposit("alice", 500)
	if err != nil || account.Balance != 500 {
		t.Fatalf("unexpected deposit result: %+v (err %v)", account, err)
	}

	if _, err := service.Deposit("alice", 0); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected ErrValidation for zero deposit, got %v", err)
	}
	if _, err := service.Deposit("alice", -5); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected ErrValidation for negative deposit, got %v", err)
	}
}
