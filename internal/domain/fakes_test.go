package domain_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/altabank/ledger-service/internal/domain"
)

// fakeStore is an in-memory implementation of the repositories and the
// transaction manager. WithTransaction serializes on a mutex and restores a
// snapshot on error, mirroring the atomicity of a real database transaction.
type fakeStore struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]*domain.Account
	transactions []*domain.TransactionRecord
	transfers    []*domain.TransferRecord
}

// fakeTxKey marks a context as running inside WithTransaction, so repository
// calls made from the callback don't re-acquire the store mutex.
type fakeTxKey struct{}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (s *fakeStore) addAccount(id uuid.UUID, balanceUnits int64, currency string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.accounts[id] = &domain.Account{
		ID:        id,
		Balance:   domain.NewAmount(balanceUnits, currency),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *fakeStore) balanceUnits(id uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id].Balance.Units
}

// WithTransaction implements domain.TransactionManager.
func (s *fakeStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[uuid.UUID]*domain.Account, len(s.accounts))
	for id, account := range s.accounts {
		copied := *account
		snapshot[id] = &copied
	}
	txCount, trCount := len(s.transactions), len(s.transfers)

	err := fn(context.WithValue(ctx, fakeTxKey{}, true))
	if err != nil {
		s.accounts = snapshot
		s.transactions = s.transactions[:txCount]
		s.transfers = s.transfers[:trCount]
		return err
	}
	return nil
}

// lockIfNeeded guards repository calls made outside WithTransaction.
func (s *fakeStore) lockIfNeeded(ctx context.Context) func() {
	if ctx.Value(fakeTxKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	defer s.lockIfNeeded(ctx)()
	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *fakeStore) Lock(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeStore) Create(ctx context.Context, account *domain.Account) error {
	defer s.lockIfNeeded(ctx)()
	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

func (s *fakeStore) Update(ctx context.Context, account *domain.Account) error {
	defer s.lockIfNeeded(ctx)()
	if _, ok := s.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

// fakeTransactionLog implements domain.TransactionRepository on a fakeStore.
type fakeTransactionLog struct {
	store *fakeStore
	// appendErr, when set, makes Append fail to exercise rollback.
	appendErr error
	// idemDeadline records whether the last idempotency lookup ran under a
	// context deadline.
	idemDeadline bool
}

func (l *fakeTransactionLog) Append(ctx context.Context, record *domain.TransactionRecord) error {
	if l.appendErr != nil {
		return l.appendErr
	}
	defer l.store.lockIfNeeded(ctx)()
	copied := *record
	l.store.transactions = append(l.store.transactions, &copied)
	return nil
}

func (l *fakeTransactionLog) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*domain.TransactionRecord, error) {
	defer l.store.lockIfNeeded(ctx)()
	_, l.idemDeadline = ctx.Deadline()
	for _, record := range l.store.transactions {
		if record.IdempotencyKey == idempotencyKey {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (l *fakeTransactionLog) ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*domain.TransactionRecord, error) {
	defer l.store.lockIfNeeded(ctx)()
	var records []*domain.TransactionRecord
	for i := len(l.store.transactions) - 1; i >= 0; i-- {
		record := l.store.transactions[i]
		if record.AccountID != accountID {
			continue
		}
		if from != nil && record.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && !record.CreatedAt.Before(*to) {
			continue
		}
		copied := *record
		records = append(records, &copied)
	}
	return records, nil
}

// fakeTransferLog implements domain.TransferRepository on a fakeStore.
type fakeTransferLog struct {
	store        *fakeStore
	appendErr    error
	idemDeadline bool
}

func (l *fakeTransferLog) Append(ctx context.Context, record *domain.TransferRecord) error {
	if l.appendErr != nil {
		return l.appendErr
	}
	defer l.store.lockIfNeeded(ctx)()
	copied := *record
	l.store.transfers = append(l.store.transfers, &copied)
	return nil
}

func (l *fakeTransferLog) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*domain.TransferRecord, error) {
	defer l.store.lockIfNeeded(ctx)()
	_, l.idemDeadline = ctx.Deadline()
	for _, record := range l.store.transfers {
		if record.IdempotencyKey == idempotencyKey {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (l *fakeTransferLog) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.TransferRecord, error) {
	defer l.store.lockIfNeeded(ctx)()
	var records []*domain.TransferRecord
	for i := len(l.store.transfers) - 1; i >= 0; i-- {
		record := l.store.transfers[i]
		if record.SenderID != accountID && record.RecipientID != accountID {
			continue
		}
		copied := *record
		records = append(records, &copied)
	}
	return records, nil
}

// fakeUsers implements domain.UserRepository in memory.
type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUsers) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return domain.ErrUserExists
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}
