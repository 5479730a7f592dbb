package repository

import (
	"context"

	"github.com/Dan9191/bank-ledger/internal/models"
)

// AccountRepository stores accounts together with their movement logs.
// Returned accounts are copies; mutate them and call SaveAccount to persist.
type AccountRepository interface {
	// FindAccount returns models.ErrAccountNotFound when the id is unknown
	FindAccount(ctx context.Context, id int64) (*models.Account, error)
	// SaveAccount upserts the account keyed by its id
	SaveAccount(ctx context.Context, account *models.Account) error
	// FindAccountsByCustomer returns accounts ordered by creation time
	FindAccountsByCustomer(ctx context.Context, customerID int64) ([]*models.Account, error)
}

// LoanRepository stores loans and their payment plans
type LoanRepository interface {
	SaveLoan(ctx context.Context, loan *models.Loan) error
	// FindLoan returns models.ErrLoanNotFound when the id is unknown
	FindLoan(ctx context.Context, id string) (*models.Loan, error)
	FindLoansByCustomer(ctx context.Context, customerID int64) ([]*models.Loan, error)
	// FindActiveLoans returns every APPROVED or ACTIVE loan
	FindActiveLoans(ctx context.Context) ([]*models.Loan, error)
}

// CustomerRepository is the customer lookup collaborator
type CustomerRepository interface {
	// CreateCustomer returns models.ErrCustomerExists for a duplicate id
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	// FindCustomer returns models.ErrCustomerNotFound when the id is unknown
	FindCustomer(ctx context.Context, id int64) (*models.Customer, error)
}

// Store groups the repositories and runs units of work atomically
type Store interface {
	Accounts() AccountRepository
	Loans() LoanRepository
	Customers() CustomerRepository
	// WithinTx runs fn against a transactional view of the store. Every write made
	// through tx is committed together when fn returns nil, and discarded otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
