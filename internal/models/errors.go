package models

import "errors"

var (
	// ErrInvalidAmount is returned for non-positive amounts
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInsufficientFunds is returned when a debit exceeds the balance
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrCurrencyMismatch is returned when two accounts or a loan and an account use different currencies
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrInvalidOperation is returned for operations that make no sense, such as a self-transfer
	ErrInvalidOperation = errors.New("invalid operation")
	ErrAccountNotFound  = errors.New("account not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrLoanNotFound     = errors.New("loan not found")
	ErrCustomerExists   = errors.New("customer already exists")
	// ErrInvalidTerm is returned for a non-positive loan term
	ErrInvalidTerm    = errors.New("loan term must be positive")
	ErrCreditRejected = errors.New("rejected due to credit rating")
	// ErrDuplicateAccountType is returned when the customer already holds an account of that kind and currency
	ErrDuplicateAccountType   = errors.New("customer already holds an account of this type and currency")
	ErrUnsupportedAccountType = errors.New("unsupported account type")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidInput           = errors.New("invalid input")
	// ErrForbidden is returned when the authenticated customer does not own the resource
	ErrForbidden = errors.New("access denied")
	// ErrLoanIntegrity is returned when a stored loan no longer matches its signature
	ErrLoanIntegrity = errors.New("loan signature mismatch")
)
