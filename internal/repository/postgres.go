package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/Dan9191/bank-ledger/internal/models"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const (
	// uniqueViolation is the PostgreSQL error code for duplicate keys
	uniqueViolation = "23505"
	// accountTypeConstraint keeps one account per customer, kind and currency
	accountTypeConstraint = "accounts_customer_type_key"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore provides database operations
type PostgresStore struct {
	db *sql.DB
	q  dbtx
}

// NewPostgresStore initializes a new store over an open database
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

// Migrate creates the bank schema if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Accounts() AccountRepository   { return &pgAccounts{store: s} }
func (s *PostgresStore) Loans() LoanRepository         { return &pgLoans{store: s} }
func (s *PostgresStore) Customers() CustomerRepository { return &pgCustomers{q: s.q} }

// WithinTx runs fn inside a SQL transaction. Nested calls join the outer transaction.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&PostgresStore{db: s.db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type pgAccounts struct {
	store *PostgresStore
}

// FindAccount loads an account and its movements, locking the row inside a transaction
func (r *pgAccounts) FindAccount(ctx context.Context, id int64) (*models.Account, error) {
	query := `
		SELECT id, customer_id, kind, currency, balance, last_movement_id, created_at
		FROM bank.accounts
		WHERE id = $1`
	if _, ok := r.store.q.(*sql.Tx); ok {
		query += ` FOR UPDATE`
	}
	account := &models.Account{}
	err := r.store.q.QueryRowContext(ctx, query, id).
		Scan(&account.ID, &account.CustomerID, &account.Kind, &account.Currency,
			&account.Balance, &account.LastMovementID, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account.Movements, err = r.movements(ctx, id); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *pgAccounts) movements(ctx context.Context, accountID int64) ([]models.Movement, error) {
	query := `
		SELECT id, created_at, type, amount, origin_account_id, destination_account_id, description
		FROM bank.movements
		WHERE account_id = $1
		ORDER BY id`
	rows, err := r.store.q.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load movements: %w", err)
	}
	defer rows.Close()

	movements := make([]models.Movement, 0)
	for rows.Next() {
		var m models.Movement
		var dest sql.NullInt64
		if err := rows.Scan(&m.ID, &m.Timestamp, &m.Type, &m.Amount, &m.OriginID, &dest, &m.Description); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		if dest.Valid {
			id := dest.Int64
			m.DestinationID = &id
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load movements: %w", err)
	}
	return movements, nil
}

// SaveAccount upserts the account row and appends movements not yet stored.
// Movements are immutable, so existing rows are left untouched.
func (r *pgAccounts) SaveAccount(ctx context.Context, account *models.Account) error {
	return r.store.WithinTx(ctx, func(tx Store) error {
		q := tx.(*PostgresStore).q
		query := `
			INSERT INTO bank.accounts (id, customer_id, kind, currency, balance, last_movement_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
			ON CONFLICT (id) DO UPDATE
			SET balance = EXCLUDED.balance, last_movement_id = EXCLUDED.last_movement_id, updated_at = CURRENT_TIMESTAMP`
		if _, err := q.ExecContext(ctx, query, account.ID, account.CustomerID, account.Kind, account.Currency,
			account.Balance, account.LastMovementID, account.CreatedAt); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == accountTypeConstraint {
				return models.ErrDuplicateAccountType
			}
			return fmt.Errorf("failed to save account %d: %w", account.ID, err)
		}

		insert := `
			INSERT INTO bank.movements (account_id, id, created_at, type, amount, origin_account_id, destination_account_id, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (account_id, id) DO NOTHING`
		for _, m := range account.Movements {
			var dest sql.NullInt64
			if m.DestinationID != nil {
				dest = sql.NullInt64{Int64: *m.DestinationID, Valid: true}
			}
			if _, err := q.ExecContext(ctx, insert, account.ID, m.ID, m.Timestamp, m.Type, m.Amount,
				m.OriginID, dest, m.Description); err != nil {
				return fmt.Errorf("failed to save movement %d of account %d: %w", m.ID, account.ID, err)
			}
		}
		return nil
	})
}

func (r *pgAccounts) FindAccountsByCustomer(ctx context.Context, customerID int64) ([]*models.Account, error) {
	rows, err := r.store.q.QueryContext(ctx,
		`SELECT id FROM bank.accounts WHERE customer_id = $1 ORDER BY created_at, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find accounts: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to find accounts: %w", err)
	}

	accounts := make([]*models.Account, 0, len(ids))
	for _, id := range ids {
		account, err := r.FindAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

type pgLoans struct {
	store *PostgresStore
}

const loanColumns = `id, customer_id, account_id, principal, term_months, currency, annual_rate,
	requested_at, status, payments_made, remaining_balance, hmac`

// SaveLoan upserts the loan and replaces its payment plan
func (r *pgLoans) SaveLoan(ctx context.Context, loan *models.Loan) error {
	return r.store.WithinTx(ctx, func(tx Store) error {
		q := tx.(*PostgresStore).q
		query := `
			INSERT INTO bank.loans (` + loanColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE
			SET status = EXCLUDED.status, payments_made = EXCLUDED.payments_made,
				remaining_balance = EXCLUDED.remaining_balance, hmac = EXCLUDED.hmac`
		if _, err := q.ExecContext(ctx, query, loan.ID, loan.CustomerID, loan.AccountID, loan.Principal,
			loan.TermMonths, loan.Currency, loan.AnnualRate, loan.RequestedAt, loan.Status,
			loan.PaymentsMade, loan.RemainingBalance, loan.HMAC); err != nil {
			return fmt.Errorf("failed to save loan %s: %w", loan.ID, err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM bank.loan_installments WHERE loan_id = $1`, loan.ID); err != nil {
			return fmt.Errorf("failed to replace installments of loan %s: %w", loan.ID, err)
		}
		for _, inst := range loan.PaymentPlan {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO bank.loan_installments (loan_id, number, amount) VALUES ($1, $2, $3)`,
				loan.ID, inst.Number, inst.Amount); err != nil {
				return fmt.Errorf("failed to save installment %d of loan %s: %w", inst.Number, loan.ID, err)
			}
		}
		return nil
	})
}

func (r *pgLoans) FindLoan(ctx context.Context, id string) (*models.Loan, error) {
	loans, err := r.query(ctx, `SELECT `+loanColumns+` FROM bank.loans WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(loans) == 0 {
		return nil, models.ErrLoanNotFound
	}
	return loans[0], nil
}

func (r *pgLoans) FindLoansByCustomer(ctx context.Context, customerID int64) ([]*models.Loan, error) {
	return r.query(ctx, `SELECT `+loanColumns+` FROM bank.loans WHERE customer_id = $1 ORDER BY requested_at`, customerID)
}

func (r *pgLoans) FindActiveLoans(ctx context.Context) ([]*models.Loan, error) {
	return r.query(ctx, `SELECT `+loanColumns+` FROM bank.loans WHERE status = ANY($1) ORDER BY requested_at`,
		pq.Array([]string{string(models.LoanApproved), string(models.LoanActive)}))
}

func (r *pgLoans) query(ctx context.Context, query string, args ...any) ([]*models.Loan, error) {
	rows, err := r.store.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find loans: %w", err)
	}
	loans := make([]*models.Loan, 0)
	for rows.Next() {
		l := &models.Loan{}
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.AccountID, &l.Principal, &l.TermMonths, &l.Currency,
			&l.AnnualRate, &l.RequestedAt, &l.Status, &l.PaymentsMade, &l.RemainingBalance, &l.HMAC); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to find loans: %w", err)
	}

	for _, l := range loans {
		if l.PaymentPlan, err = r.installments(ctx, l.ID); err != nil {
			return nil, err
		}
	}
	return loans, nil
}

func (r *pgLoans) installments(ctx context.Context, loanID string) ([]models.Installment, error) {
	rows, err := r.store.q.QueryContext(ctx,
		`SELECT number, amount FROM bank.loan_installments WHERE loan_id = $1 ORDER BY number`, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load installments: %w", err)
	}
	defer rows.Close()
	plan := make([]models.Installment, 0)
	for rows.Next() {
		var inst models.Installment
		if err := rows.Scan(&inst.Number, &inst.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		plan = append(plan, inst)
	}
	return plan, rows.Err()
}

type pgCustomers struct {
	q dbtx
}

// CreateCustomer creates a new customer in the database
func (r *pgCustomers) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO bank.customers (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.q.QueryRowContext(ctx, query, customer.ID, customer.Name, customer.Email, customer.PasswordHash).
		Scan(&customer.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return models.ErrCustomerExists
	}
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// FindCustomer retrieves a customer by id
func (r *pgCustomers) FindCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	customer := &models.Customer{}
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM bank.customers
		WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).
		Scan(&customer.ID, &customer.Name, &customer.Email, &customer.PasswordHash, &customer.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return customer, nil
}

var _ Store = (*PostgresStore)(nil)
