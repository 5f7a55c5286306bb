package domain_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/altabank/ledger-service/internal/domain"
)

func newTestLedger(store *fakeStore) (*domain.LedgerService, *fakeTransactionLog, *fakeTransferLog) {
	txLog := &fakeTransactionLog{store: store}
	transfers := &fakeTransferLog{store: store}
	svc := domain.NewLedgerService(store, txLog, transfers, store, nil)
	return svc, txLog, transfers
}

func usd(units int64) domain.Amount {
	return domain.NewAmount(units, "USD")
}

func TestLedgerService_Deposit(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	store.addAccount(accountID, 0, "USD")

	record, err := svc.Deposit(context.Background(), accountID, usd(10050), "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Kind != domain.KindDeposit {
		t.Errorf("expected kind %s, got %s", domain.KindDeposit, record.Kind)
	}
	if record.BalanceAfter.Units != 10050 {
		t.Errorf("expected balance after 10050, got %d", record.BalanceAfter.Units)
	}
	if got := store.balanceUnits(accountID); got != 10050 {
		t.Errorf("expected balance 10050, got %d", got)
	}
	if len(store.transactions) != 1 {
		t.Errorf("expected 1 transaction record, got %d", len(store.transactions))
	}
}

func TestLedgerService_Deposit_AccountNotFound(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)

	_, err := svc.Deposit(context.Background(), uuid.New(), usd(100), "key-1")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestLedgerService_Deposit_InvalidAmount(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	store.addAccount(accountID, 500, "USD")

	tests := []struct {
		name   string
		amount domain.Amount
	}{
		{"zero", usd(0)},
		{"negative", usd(-500)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Deposit(context.Background(), accountID, tt.amount, "key-"+tt.name)
			if !errors.Is(err, domain.ErrInvalidAmount) {
				t.Errorf("expected ErrInvalidAmount, got %v", err)
			}
		})
	}
	if got := store.balanceUnits(accountID); got != 500 {
		t.Errorf("expected balance unchanged at 500, got %d", got)
	}
	if len(store.transactions) != 0 {
		t.Errorf("expected no transaction records, got %d", len(store.transactions))
	}
}

func TestLedgerService_Deposit_MissingIdempotencyKey(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	store.addAccount(accountID, 0, "USD")

	_, err := svc.Deposit(context.Background(), accountID, usd(100), "")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestLedgerService_Deposit_CurrencyMismatch(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	store.addAccount(accountID, 0, "USD")

	_, err := svc.Deposit(context.Background(), accountID, domain.NewAmount(100, "EUR"), "key-1")
	if !errors.Is(err, domain.ErrCurrencyMismatch) {
		t.Errorf("expected ErrCurrencyMismatch, got %v", err)
	}
	if len(store.transactions) != 0 {
		t.Errorf("expected no transaction records, got %d", len(store.transactions))
	}
}

func TestLedgerService_Deposit_IdempotentReplay(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	store.addAccount(accountID, 0, "USD")

	first, err := svc.Deposit(context.Background(), accountID, usd(2500), "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Deposit(context.Background(), accountID, usd(2500), "key-1")
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected replay to return the original record %s, got %s", first.ID, second.ID)
	}
	if got := store.balanceUnits(accountID); got != 2500 {
		t.Errorf("expected balance applied once (2500), got %d", got)
	}
	if len(store.transactions) != 1 {
		t.Errorf("expected 1 transaction record, got %d", len(store.transactions))
	}
}

func TestLedgerService_Withdraw(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	store.addAccount(accountID, 10000, "USD")

	record, err := svc.Withdraw(context.Background(), accountID, usd(4000), "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Kind != domain.KindWithdraw {
		t.Errorf("expected kind %s, got %s", domain.KindWithdraw, record.Kind)
	}
	if record.BalanceAfter.Units != 6000 {
		t.Errorf("expected balance after 6000, got %d", record.BalanceAfter.Units)
	}
	if got := store.balanceUnits(accountID); got != 6000 {
		t.Errorf("expected balance 6000, got %d", got)
	}
}

func TestLedgerService_Withdraw_ExactBalance(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	store.addAccount(accountID, 5000, "USD")

	record, err := svc.Withdraw(context.Background(), accountID, usd(5000), "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.BalanceAfter.Units != 0 {
		t.Errorf("expected balance after 0, got %d", record.BalanceAfter.Units)
	}
}

func TestLedgerService_Withdraw_InsufficientFunds(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	store.addAccount(accountID, 1000, "USD")

	_, err := svc.Withdraw(context.Background(), accountID, usd(1001), "key-1")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := store.balanceUnits(accountID); got != 1000 {
		t.Errorf("expected balance unchanged at 1000, got %d", got)
	}
	if len(store.transactions) != 0 {
		t.Errorf("expected no transaction records for failed withdrawal, got %d", len(store.transactions))
	}
}

func TestLedgerService_AppendFailureRollsBack(t *testing.T) {
	store := newFakeStore()
	txLog := &fakeTransactionLog{store: store, appendErr: errors.New("disk full")}
	transfers := &fakeTransferLog{store: store}
	svc := domain.NewLedgerService(store, txLog, transfers, store, nil)
	accountID := uuid.New()
	store.addAccount(accountID, 1000, "USD")

	_, err := svc.Deposit(context.Background(), accountID, usd(500), "key-1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := store.balanceUnits(accountID); got != 1000 {
		t.Errorf("expected balance rolled back to 1000, got %d", got)
	}
}

func TestLedgerService_Transfer(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	alice, bob := uuid.New(), uuid.New()
	store.addAccount(alice, 10000, "USD")
	store.addAccount(bob, 5000, "USD")

	record, err := svc.Transfer(context.Background(), alice, bob, usd(3000), "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.SenderBalanceAfter.Units != 7000 {
		t.Errorf("expected sender balance after 7000, got %d", record.SenderBalanceAfter.Units)
	}
	if record.RecipientBalanceAfter.Units != 8000 {
		t.Errorf("expected recipient balance after 8000, got %d", record.RecipientBalanceAfter.Units)
	}
	if got := store.balanceUnits(alice); got != 7000 {
		t.Errorf("expected sender balance 7000, got %d", got)
	}
	if got := store.balanceUnits(bob); got != 8000 {
		t.Errorf("expected recipient balance 8000, got %d", got)
	}
	if len(store.transfers) != 1 {
		t.Errorf("expected 1 transfer record, got %d", len(store.transfers))
	}

	// Money moved, it was not created: the sender can no longer spend it.
	_, err = svc.Withdraw(context.Background(), alice, usd(100000), "key-2")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestLedgerService_Transfer_SameAccount(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	store.addAccount(accountID, 10000, "USD")

	_, err := svc.Transfer(context.Background(), accountID, accountID, usd(100), "key-1")
	if !errors.Is(err, domain.ErrSameAccount) {
		t.Errorf("expected ErrSameAccount, got %v", err)
	}
	if got := store.balanceUnits(accountID); got != 10000 {
		t.Errorf("expected balance unchanged at 10000, got %d", got)
	}
}

func TestLedgerService_Transfer_InsufficientFunds(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	alice, bob := uuid.New(), uuid.New()
	store.addAccount(alice, 100, "USD")
	store.addAccount(bob, 0, "USD")

	_, err := svc.Transfer(context.Background(), alice, bob, usd(101), "key-1")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := store.balanceUnits(alice); got != 100 {
		t.Errorf("expected sender balance unchanged at 100, got %d", got)
	}
	if got := store.balanceUnits(bob); got != 0 {
		t.Errorf("expected recipient balance unchanged at 0, got %d", got)
	}
	if len(store.transfers) != 0 {
		t.Errorf("expected no transfer records, got %d", len(store.transfers))
	}
}

func TestLedgerService_Transfer_RecipientNotFound(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	alice := uuid.New()
	store.addAccount(alice, 10000, "USD")

	_, err := svc.Transfer(context.Background(), alice, uuid.New(), usd(100), "key-1")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
	if got := store.balanceUnits(alice); got != 10000 {
		t.Errorf("expected sender balance unchanged at 10000, got %d", got)
	}
}

func TestLedgerService_Transfer_IdempotentReplay(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	alice, bob := uuid.New(), uuid.New()
	store.addAccount(alice, 10000, "USD")
	store.addAccount(bob, 0, "USD")

	first, err := svc.Transfer(context.Background(), alice, bob, usd(2500), "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Transfer(context.Background(), alice, bob, usd(2500), "key-1")
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected replay to return the original record %s, got %s", first.ID, second.ID)
	}
	if got := store.balanceUnits(alice); got != 7500 {
		t.Errorf("expected transfer applied once (7500), got %d", got)
	}
}

func TestLedgerService_Balance(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	store.addAccount(accountID, 4200, "USD")

	balance, err := svc.Balance(context.Background(), accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance.Units != 4200 {
		t.Errorf("expected balance 4200, got %d", balance.Units)
	}

	// Reading a balance does not change it.
	again, err := svc.Balance(context.Background(), accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Units != balance.Units {
		t.Errorf("expected repeated read to return %d, got %d", balance.Units, again.Units)
	}

	_, err = svc.Balance(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestLedgerService_History(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	other := uuid.New()
	store.addAccount(accountID, 0, "USD")
	store.addAccount(other, 0, "USD")

	ctx := context.Background()
	if _, err := svc.Deposit(ctx, accountID, usd(1000), "key-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Withdraw(ctx, accountID, usd(300), "key-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Deposit(ctx, other, usd(999), "key-3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := svc.History(ctx, accountID, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Most recent first.
	if records[0].Kind != domain.KindWithdraw {
		t.Errorf("expected first record to be the withdrawal, got %s", records[0].Kind)
	}
	if records[1].Kind != domain.KindDeposit {
		t.Errorf("expected second record to be the deposit, got %s", records[1].Kind)
	}

	_, err = svc.History(ctx, uuid.New(), nil, nil)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestLedgerService_Transfers(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	store.addAccount(alice, 10000, "USD")
	store.addAccount(bob, 10000, "USD")
	store.addAccount(carol, 10000, "USD")

	ctx := context.Background()
	if _, err := svc.Transfer(ctx, alice, bob, usd(100), "key-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Transfer(ctx, carol, alice, usd(200), "key-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Transfer(ctx, bob, carol, usd(300), "key-3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := svc.Transfers(ctx, alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records touching the account, got %d", len(records))
	}
	if records[0].RecipientID != alice {
		t.Errorf("expected most recent record to be the incoming transfer")
	}
}

func TestLedgerService_OperationTimeoutCoversIdempotencyCheck(t *testing.T) {
	store := newFakeStore()
	txLog := &fakeTransactionLog{store: store}
	transfers := &fakeTransferLog{store: store}
	svc := domain.NewLedgerService(store, txLog, transfers, store, nil)
	alice, bob := uuid.New(), uuid.New()
	store.addAccount(alice, 10000, "USD")
	store.addAccount(bob, 0, "USD")

	if _, err := svc.Deposit(context.Background(), alice, usd(100), "key-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !txLog.idemDeadline {
		t.Error("expected the deposit idempotency lookup to run under the operation deadline")
	}

	if _, err := svc.Transfer(context.Background(), alice, bob, usd(100), "key-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !transfers.idemDeadline {
		t.Error("expected the transfer idempotency lookup to run under the operation deadline")
	}
}

func TestLedgerService_ConcurrentDeposits(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	store.addAccount(accountID, 0, "USD")

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Deposit(context.Background(), accountID, usd(1), uuid.NewString())
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}

	if got := store.balanceUnits(accountID); got != n {
		t.Errorf("expected balance %d after %d concurrent deposits, got %d", n, n, got)
	}
	if len(store.transactions) != n {
		t.Errorf("expected %d transaction records, got %d", n, len(store.transactions))
	}
}

func TestLedgerService_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	accountID := uuid.New()
	store.addAccount(accountID, 10, "USD")

	const n = 30
	var wg sync.WaitGroup
	var succeeded, insufficient int
	var mu sync.Mutex
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(context.Background(), accountID, usd(1), uuid.NewString())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientFunds):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 {
		t.Errorf("expected exactly 10 withdrawals to succeed, got %d", succeeded)
	}
	if insufficient != n-10 {
		t.Errorf("expected %d withdrawals to fail, got %d", n-10, insufficient)
	}
	if got := store.balanceUnits(accountID); got != 0 {
		t.Errorf("expected balance 0, got %d", got)
	}
}

func TestLedgerService_ConcurrentOpposingTransfers(t *testing.T) {
	store := newFakeStore()
	svc, _, _ := newTestLedger(store)
	alice, bob := uuid.New(), uuid.New()
	store.addAccount(alice, 10000, "USD")
	store.addAccount(bob, 10000, "USD")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := svc.Transfer(context.Background(), alice, bob, usd(10), uuid.NewString()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := svc.Transfer(context.Background(), bob, alice, usd(10), uuid.NewString()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	total := store.balanceUnits(alice) + store.balanceUnits(bob)
	if total != 20000 {
		t.Errorf("expected total balance conserved at 20000, got %d", total)
	}
}
