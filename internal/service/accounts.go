package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Dan9191/bank-ledger/internal/models"
	"github.com/Dan9191/bank-ledger/internal/repository"
	"github.com/Dan9191/bank-ledger/internal/utils"
)

// maxIDAttempts bounds the retries when a generated account id is already taken
const maxIDAttempts = 5

// CreateAccount opens an account of a supported kind and currency for an existing customer
func (s *Service) CreateAccount(ctx context.Context, req models.CreateAccountRequest) (*models.Account, error) {
	if err := authorize(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	kind, err := models.ParseAccountKind(req.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnsupportedAccountType, err)
	}
	currency, err := models.ParseCurrency(req.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnsupportedAccountType, err)
	}
	if !models.SupportedAccountType(kind, currency) {
		return nil, fmt.Errorf("%w: %s in %s", models.ErrUnsupportedAccountType, kind, currency)
	}
	if req.InitialDeposit.IsNegative() {
		return nil, models.ErrInvalidAmount
	}

	var account *models.Account
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Customers().FindCustomer(ctx, req.CustomerID); err != nil {
			return err
		}
		existing, err := tx.Accounts().FindAccountsByCustomer(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		for _, a := range existing {
			if a.Kind == kind && a.Currency == currency {
				return models.ErrDuplicateAccountType
			}
		}

		id, err := s.newAccountID(ctx, tx)
		if err != nil {
			return err
		}
		account = models.NewAccount(id, req.CustomerID, kind, currency)
		if req.InitialDeposit.IsPositive() {
			if _, err := account.Deposit(req.InitialDeposit, models.DescriptionInitialDeposit); err != nil {
				return err
			}
		}
		return tx.Accounts().SaveAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Account %d created for customer %d: %s %s", account.ID, account.CustomerID, account.Kind, account.Currency)
	return account, nil
}

func (s *Service) newAccountID(ctx context.Context, tx repository.Store) (int64, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := utils.GenerateAccountID()
		if err != nil {
			return 0, fmt.Errorf("failed to generate account id: %w", err)
		}
		_, err = tx.Accounts().FindAccount(ctx, id)
		if errors.Is(err, models.ErrAccountNotFound) {
			return id, nil
		}
		if err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("failed to generate a free account id after %d attempts", maxIDAttempts)
}

// GetAccount returns an account without recording anything
func (s *Service) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.store.Accounts().FindAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, account.CustomerID); err != nil {
		return nil, err
	}
	return account, nil
}

// GetBalance returns the account with its current balance and records a balance inquiry
func (s *Service) GetBalance(ctx context.Context, id int64) (*models.Account, error) {
	var account *models.Account
	err := s.mutate(ctx, id, func(a *models.Account) error {
		if err := authorize(ctx, a.CustomerID); err != nil {
			return err
		}
		a.RecordInquiry()
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListMovements returns the account's movement log, oldest first
func (s *Service) ListMovements(ctx context.Context, id int64) ([]models.Movement, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return account.Movements, nil
}

// ListCustomerAccounts returns every account of an existing customer and records
// a balance inquiry on each, since the listing exposes their balances
func (s *Service) ListCustomerAccounts(ctx context.Context, customerID int64) ([]*models.Account, error) {
	if err := authorize(ctx, customerID); err != nil {
		return nil, err
	}
	if _, err := s.store.Customers().FindCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	listed, err := s.store.Accounts().FindAccountsByCustomer(ctx, customerID)
	if err != nil || len(listed) == 0 {
		return listed, err
	}

	ids := make([]int64, len(listed))
	for i, a := range listed {
		ids[i] = a.ID
	}
	unlock := s.locks.lock(ids...)
	defer unlock()

	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	accounts := make([]*models.Account, len(ids))
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		loaded := make(map[int64]*models.Account, len(sorted))
		for _, id := range sorted {
			a, err := tx.Accounts().FindAccount(ctx, id)
			if err != nil {
				return fmt.Errorf("account %d: %w", id, err)
			}
			a.RecordInquiry()
			if err := tx.Accounts().SaveAccount(ctx, a); err != nil {
				return err
			}
			loaded[id] = a
		}
		for i, id := range ids {
			accounts[i] = loaded[id]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// Deposit credits the account
func (s *Service) Deposit(ctx context.Context, req models.OperationRequest) (*models.Account, error) {
	var account *models.Account
	err := s.mutate(ctx, req.AccountID, func(a *models.Account) error {
		if _, err := a.Deposit(req.Amount, ""); err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Deposited %s %s to account %d", req.Amount, account.Currency, account.ID)
	return account, nil
}

// Withdraw debits the account if the balance covers the amount
func (s *Service) Withdraw(ctx context.Context, req models.OperationRequest) (*models.Account, error) {
	var account *models.Account
	err := s.mutate(ctx, req.AccountID, func(a *models.Account) error {
		if err := authorize(ctx, a.CustomerID); err != nil {
			return err
		}
		if _, err := a.Debit(req.Amount); err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Withdrew %s %s from account %d", req.Amount, account.Currency, account.ID)
	return account, nil
}

// Transfer moves money between two accounts of the same currency. Both accounts are
// locked in id order and saved in a single unit of work, so either both movements
// are recorded or neither is.
func (s *Service) Transfer(ctx context.Context, req models.TransferRequest) (*models.Account, *models.Account, error) {
	if req.SourceAccountID == req.DestAccountID {
		return nil, nil, fmt.Errorf("%w: cannot transfer to the same account", models.ErrInvalidOperation)
	}

	unlock := s.locks.lock(req.SourceAccountID, req.DestAccountID)
	defer unlock()

	var source, dest *models.Account
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		loaded := make(map[int64]*models.Account, 2)
		for _, id := range orderedPair(req.SourceAccountID, req.DestAccountID) {
			a, err := tx.Accounts().FindAccount(ctx, id)
			if err != nil {
				return fmt.Errorf("account %d: %w", id, err)
			}
			loaded[id] = a
		}
		source, dest = loaded[req.SourceAccountID], loaded[req.DestAccountID]

		if err := authorize(ctx, source.CustomerID); err != nil {
			return err
		}
		if _, _, err := source.TransferTo(dest, req.Amount); err != nil {
			return err
		}
		if err := tx.Accounts().SaveAccount(ctx, source); err != nil {
			return err
		}
		return tx.Accounts().SaveAccount(ctx, dest)
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Infof("Transferred %s %s from account %d to account %d", req.Amount, source.Currency, source.ID, dest.ID)
	s.notifyTransfer(ctx, source, dest, req.Amount)
	return source, dest, nil
}

// mutate loads the account under its lock, applies fn and saves the result in one unit of work
func (s *Service) mutate(ctx context.Context, id int64, fn func(a *models.Account) error) error {
	unlock := s.locks.lock(id)
	defer unlock()

	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		account, err := tx.Accounts().FindAccount(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(account); err != nil {
			return err
		}
		return tx.Accounts().SaveAccount(ctx, account)
	})
}

func orderedPair(a, b int64) [2]int64 {
	if a > b {
		return [2]int64{b, a}
	}
	return [2]int64{a, b}
}
