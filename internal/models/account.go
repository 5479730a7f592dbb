package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency of an account or loan
type Currency string

const (
	CurrencyLocal Currency = "PESOS"
	CurrencyUSD   Currency = "USD"
)

// ParseCurrency converts user input into a known Currency
func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(strings.ToUpper(strings.TrimSpace(s))); c {
	case CurrencyLocal, CurrencyUSD:
		return c, nil
	default:
		return "", fmt.Errorf("unknown currency %q", s)
	}
}

// AccountKind distinguishes savings and checking accounts
type AccountKind string

const (
	AccountSavings  AccountKind = "SAVINGS"
	AccountChecking AccountKind = "CHECKING"
)

// ParseAccountKind converts user input into a known AccountKind
func ParseAccountKind(s string) (AccountKind, error) {
	switch k := AccountKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case AccountSavings, AccountChecking:
		return k, nil
	default:
		return "", fmt.Errorf("unknown account kind %q", s)
	}
}

// SupportedAccountType reports whether the bank offers accounts of this kind in this currency
func SupportedAccountType(kind AccountKind, currency Currency) bool {
	switch {
	case kind == AccountSavings && currency == CurrencyLocal:
		return true
	case kind == AccountChecking && currency == CurrencyLocal:
		return true
	case kind == AccountSavings && currency == CurrencyUSD:
		return true
	}
	return false
}

// AmountScale is the number of decimal places balances and movements are kept to
const AmountScale = 4

// ValidateAmount accepts positive amounts with at most AmountScale decimal places
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, AmountScale)
	}
	return nil
}

// Movement descriptions
const (
	DescriptionDeposit          = "deposit"
	DescriptionInitialDeposit   = "initial deposit"
	DescriptionWithdrawal       = "withdrawal"
	DescriptionBalanceInquiry   = "balance inquiry"
	DescriptionLoanDisbursement = "loan disbursement"
)

// Account holds a balance and the ordered log of movements that produced it.
// Balance always equals the sum of the signed movement amounts.
type Account struct {
	ID             int64           `json:"id"`
	CustomerID     int64           `json:"customer_id"`
	Kind           AccountKind     `json:"kind"`
	Currency       Currency        `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	CreatedAt      time.Time       `json:"created_at"`
	Movements      []Movement      `json:"movements"`
	LastMovementID int64           `json:"last_movement_id"`
}

// NewAccount returns an empty account with a zero balance
func NewAccount(id, customerID int64, kind AccountKind, currency Currency) *Account {
	return &Account{
		ID:         id,
		CustomerID: customerID,
		Kind:       kind,
		Currency:   currency,
		Balance:    decimal.Zero,
		CreatedAt:  time.Now().UTC(),
		Movements:  []Movement{},
	}
}

// Deposit increases the balance and records a DEPOSIT movement.
// An empty description falls back to DescriptionDeposit.
func (a *Account) Deposit(amount decimal.Decimal, description string) (Movement, error) {
	if err := ValidateAmount(amount); err != nil {
		return Movement{}, err
	}
	if description == "" {
		description = DescriptionDeposit
	}
	a.Balance = a.Balance.Add(amount)
	return a.record(OperationDeposit, amount, a.ID, nil, description), nil
}

// Debit decreases the balance and records a WITHDRAWAL movement
func (a *Account) Debit(amount decimal.Decimal) (Movement, error) {
	if err := ValidateAmount(amount); err != nil {
		return Movement{}, err
	}
	if a.Balance.LessThan(amount) {
		return Movement{}, ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return a.record(OperationWithdrawal, amount, a.ID, nil, DescriptionWithdrawal), nil
}

// TransferTo moves amount from a to dest, recording TRANSFER_SENT on a and
// TRANSFER_RECEIVED on dest. All checks run before either account changes.
func (a *Account) TransferTo(dest *Account, amount decimal.Decimal) (sent, received Movement, err error) {
	if err := ValidateAmount(amount); err != nil {
		return Movement{}, Movement{}, err
	}
	if dest == nil || dest.ID == a.ID {
		return Movement{}, Movement{}, ErrInvalidOperation
	}
	if dest.Currency != a.Currency {
		return Movement{}, Movement{}, ErrCurrencyMismatch
	}
	if a.Balance.LessThan(amount) {
		return Movement{}, Movement{}, ErrInsufficientFunds
	}

	destID := dest.ID
	a.Balance = a.Balance.Sub(amount)
	sent = a.record(OperationTransferSent, amount, a.ID, &destID,
		fmt.Sprintf("transfer sent to account %d", dest.ID))

	dest.Balance = dest.Balance.Add(amount)
	received = dest.record(OperationTransferReceived, amount, a.ID, &destID,
		fmt.Sprintf("transfer received from account %d", a.ID))
	return sent, received, nil
}

// RecordInquiry logs a balance read without changing the balance
func (a *Account) RecordInquiry() Movement {
	return a.record(OperationBalanceInquiry, decimal.Zero, a.ID, nil, DescriptionBalanceInquiry)
}

// LedgerBalance recomputes the balance from the movement log
func (a *Account) LedgerBalance() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range a.Movements {
		sum = sum.Add(m.SignedAmount())
	}
	return sum
}

// Clone returns a deep copy so callers can mutate it without touching stored state
func (a *Account) Clone() *Account {
	cp := *a
	cp.Movements = make([]Movement, len(a.Movements))
	for i, m := range a.Movements {
		if m.DestinationID != nil {
			id := *m.DestinationID
			m.DestinationID = &id
		}
		cp.Movements[i] = m
	}
	return &cp
}

func (a *Account) record(op OperationType, amount decimal.Decimal, origin int64, dest *int64, description string) Movement {
	a.LastMovementID++
	m := Movement{
		ID:            a.LastMovementID,
		Timestamp:     time.Now().UTC(),
		Type:          op,
		Amount:        amount,
		OriginID:      origin,
		DestinationID: dest,
		Description:   description,
	}
	a.Movements = append(a.Movements, m)
	return m
}
