package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dan9191/bank-ledger/internal/models"
	"github.com/shopspring/decimal"
)

func TestKVStoreAccounts(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore(NewMemoryKV())

	if _, err := store.Accounts().FindAccount(ctx, 1); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("FindAccount err = %v, want ErrAccountNotFound", err)
	}

	first := models.NewAccount(2, 7, models.AccountSavings, models.CurrencyLocal)
	second := models.NewAccount(1, 7, models.AccountSavings, models.CurrencyUSD)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	other := models.NewAccount(3, 8, models.AccountSavings, models.CurrencyLocal)
	if _, err := first.Deposit(decimal.NewFromInt(100), ""); err != nil {
		t.Fatal(err)
	}
	for _, a := range []*models.Account{first, second, other} {
		if err := store.Accounts().SaveAccount(ctx, a); err != nil {
			t.Fatalf("SaveAccount: %v", err)
		}
	}

	got, err := store.Accounts().FindAccount(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(100)) || len(got.Movements) != 1 {
		t.Fatalf("round trip lost data: %+v", got)
	}

	owned, err := store.Accounts().FindAccountsByCustomer(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(owned) != 2 || owned[0].ID != 2 || owned[1].ID != 1 {
		t.Fatalf("FindAccountsByCustomer returned %d accounts in wrong order", len(owned))
	}
}

func TestKVStoreWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore(NewMemoryKV())
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx Store) error {
		if err := tx.Accounts().SaveAccount(ctx, models.NewAccount(1, 7, models.AccountSavings, models.CurrencyLocal)); err != nil {
			return err
		}
		return tx.WithinTx(ctx, func(inner Store) error {
			_ = inner.Loans().SaveLoan(ctx, models.NewLoan("l1", 7, 10, 1, models.CurrencyLocal, 0.05))
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx err = %v", err)
	}
	if _, err := store.Accounts().FindAccount(ctx, 1); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatal("account persisted despite rollback")
	}
	if _, err := store.Loans().FindLoan(ctx, "l1"); !errors.Is(err, models.ErrLoanNotFound) {
		t.Fatal("loan persisted despite rollback")
	}
}

func TestKVStoreLoans(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore(NewMemoryKV())

	statuses := []models.LoanStatus{models.LoanApproved, models.LoanPaid, models.LoanActive, models.LoanPending}
	for i, status := range statuses {
		l := models.NewLoan(string(status), 7, 1000, 12, models.CurrencyLocal, 0.05)
		l.Status = status
		l.RequestedAt = l.RequestedAt.Add(time.Duration(i) * time.Second)
		if err := store.Loans().SaveLoan(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.Loans().FindLoansByCustomer(ctx, 7)
	if err != nil || len(all) != 4 {
		t.Fatalf("FindLoansByCustomer = %d, %v", len(all), err)
	}
	active, err := store.Loans().FindActiveLoans(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 || active[0].Status != models.LoanApproved || active[1].Status != models.LoanActive {
		t.Fatalf("FindActiveLoans = %+v", active)
	}
}

func TestKVStoreCustomers(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore(NewMemoryKV())
	c := &models.Customer{ID: 42, Name: "Ana", Email: "ana@example.com", PasswordHash: "hash"}

	if err := store.Customers().CreateCustomer(ctx, c); err != nil {
		t.Fatal(err)
	}
	if err := store.Customers().CreateCustomer(ctx, c); !errors.Is(err, models.ErrCustomerExists) {
		t.Fatalf("duplicate create err = %v", err)
	}
	got, err := store.Customers().FindCustomer(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if got.PasswordHash != "hash" || got.Email != c.Email {
		t.Fatalf("customer round trip = %+v", got)
	}
	if _, err := store.Customers().FindCustomer(ctx, 1); !errors.Is(err, models.ErrCustomerNotFound) {
		t.Fatalf("FindCustomer err = %v", err)
	}
}
