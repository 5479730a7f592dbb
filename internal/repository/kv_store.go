package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/Dan9191/bank-ledger/internal/models"
)

const (
	accountPrefix  = "account/"
	loanPrefix     = "loan/"
	customerPrefix = "customer/"
)

// KVStore implements Store on top of any KV engine, encoding records as JSON
type KVStore struct {
	kv   KV
	rw   ReadWriter
	inTx bool
}

// NewKVStore wraps a KV engine
func NewKVStore(kv KV) *KVStore {
	return &KVStore{kv: kv, rw: kv}
}

func (s *KVStore) Accounts() AccountRepository   { return &kvAccounts{rw: s.rw} }
func (s *KVStore) Loans() LoanRepository         { return &kvLoans{rw: s.rw} }
func (s *KVStore) Customers() CustomerRepository { return &kvCustomers{rw: s.rw} }

// WithinTx runs fn in a KV transaction. Nested calls join the outer transaction.
func (s *KVStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.kv.Update(ctx, func(tx ReadWriter) error {
		return fn(&KVStore{kv: s.kv, rw: tx, inTx: true})
	})
}

type kvAccounts struct {
	rw ReadWriter
}

func accountKey(id int64) string { return accountPrefix + strconv.FormatInt(id, 10) }

func (r *kvAccounts) FindAccount(ctx context.Context, id int64) (*models.Account, error) {
	raw, err := r.rw.Get(ctx, accountKey(id))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	account := &models.Account{}
	if err := json.Unmarshal(raw, account); err != nil {
		return nil, fmt.Errorf("failed to decode account %d: %w", id, err)
	}
	return account, nil
}

func (r *kvAccounts) SaveAccount(ctx context.Context, account *models.Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to encode account %d: %w", account.ID, err)
	}
	if err := r.rw.Put(ctx, accountKey(account.ID), raw); err != nil {
		return fmt.Errorf("failed to save account %d: %w", account.ID, err)
	}
	return nil
}

func (r *kvAccounts) FindAccountsByCustomer(ctx context.Context, customerID int64) ([]*models.Account, error) {
	var decodeErr error
	accounts := make([]*models.Account, 0)
	_, err := r.rw.Scan(ctx, accountPrefix, func(key string, value []byte) bool {
		account := &models.Account{}
		if err := json.Unmarshal(value, account); err != nil {
			decodeErr = fmt.Errorf("failed to decode %s: %w", key, err)
			return false
		}
		if account.CustomerID != customerID {
			return false
		}
		accounts = append(accounts, account)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan accounts: %w", err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

type kvLoans struct {
	rw ReadWriter
}

func (r *kvLoans) SaveLoan(ctx context.Context, loan *models.Loan) error {
	raw, err := json.Marshal(loan)
	if err != nil {
		return fmt.Errorf("failed to encode loan %s: %w", loan.ID, err)
	}
	if err := r.rw.Put(ctx, loanPrefix+loan.ID, raw); err != nil {
		return fmt.Errorf("failed to save loan %s: %w", loan.ID, err)
	}
	return nil
}

func (r *kvLoans) FindLoan(ctx context.Context, id string) (*models.Loan, error) {
	raw, err := r.rw.Get(ctx, loanPrefix+id)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, models.ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	loan := &models.Loan{}
	if err := json.Unmarshal(raw, loan); err != nil {
		return nil, fmt.Errorf("failed to decode loan %s: %w", id, err)
	}
	return loan, nil
}

func (r *kvLoans) FindLoansByCustomer(ctx context.Context, customerID int64) ([]*models.Loan, error) {
	return r.scan(ctx, func(l *models.Loan) bool { return l.CustomerID == customerID })
}

func (r *kvLoans) FindActiveLoans(ctx context.Context) ([]*models.Loan, error) {
	return r.scan(ctx, (*models.Loan).IsActive)
}

func (r *kvLoans) scan(ctx context.Context, keep func(*models.Loan) bool) ([]*models.Loan, error) {
	var decodeErr error
	loans := make([]*models.Loan, 0)
	_, err := r.rw.Scan(ctx, loanPrefix, func(key string, value []byte) bool {
		loan := &models.Loan{}
		if err := json.Unmarshal(value, loan); err != nil {
			decodeErr = fmt.Errorf("failed to decode %s: %w", key, err)
			return false
		}
		if !keep(loan) {
			return false
		}
		loans = append(loans, loan)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan loans: %w", err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	sort.SliceStable(loans, func(i, j int) bool { return loans[i].RequestedAt.Before(loans[j].RequestedAt) })
	return loans, nil
}

type kvCustomers struct {
	rw ReadWriter
}

// customerRecord keeps the password hash, which models.Customer hides from JSON
type customerRecord struct {
	models.Customer
	PasswordHash string `json:"password_hash"`
}

func customerKey(id int64) string { return customerPrefix + strconv.FormatInt(id, 10) }

func (r *kvCustomers) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	_, err := r.rw.Get(ctx, customerKey(customer.ID))
	if err == nil {
		return models.ErrCustomerExists
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	raw, err := json.Marshal(customerRecord{Customer: *customer, PasswordHash: customer.PasswordHash})
	if err != nil {
		return fmt.Errorf("failed to encode customer %d: %w", customer.ID, err)
	}
	if err := r.rw.Put(ctx, customerKey(customer.ID), raw); err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *kvCustomers) FindCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	raw, err := r.rw.Get(ctx, customerKey(id))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, models.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	var rec customerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode customer %d: %w", id, err)
	}
	customer := rec.Customer
	customer.PasswordHash = rec.PasswordHash
	return &customer, nil
}

var (
	_ Store = (*KVStore)(nil)
	_ KV    = (*MemoryKV)(nil)
)
