package models

import "github.com/shopspring/decimal"

// OperationRequest is the payload of a deposit or withdrawal
type OperationRequest struct {
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// TransferRequest moves money between two accounts of the same currency
type TransferRequest struct {
	SourceAccountID int64           `json:"source_account_id"`
	DestAccountID   int64           `json:"dest_account_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// CreateAccountRequest opens an account for an existing customer
type CreateAccountRequest struct {
	CustomerID     int64           `json:"customer_id"`
	Kind           string          `json:"kind"`
	Currency       string          `json:"currency"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
}

// RegisterRequest creates a customer
type RegisterRequest struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest authenticates a customer
type LoginRequest struct {
	ID       int64  `json:"id"`
	Password string `json:"password"`
}

// LoanRequest asks for a loan disbursed in the given currency
type LoanRequest struct {
	CustomerID int64   `json:"customer_id"`
	Principal  float64 `json:"principal"`
	TermMonths int     `json:"term_months"`
	Currency   string  `json:"currency"`
}

// LoanResponse is the outcome of a loan request. PaymentPlan is nil on rejection.
type LoanResponse struct {
	Status      LoanStatus    `json:"status"`
	Message     string        `json:"message"`
	PaymentPlan []Installment `json:"payment_plan"`
}

// LoanSummary is the listing view of an approved or active loan
type LoanSummary struct {
	ID               string   `json:"id"`
	Principal        float64  `json:"principal"`
	TermMonths       int      `json:"term_months"`
	PaymentsMade     int      `json:"payments_made"`
	RemainingBalance float64  `json:"remaining_balance"`
	Currency         Currency `json:"currency"`
}

// CustomerLoans lists a customer's active loans
type CustomerLoans struct {
	CustomerID int64         `json:"customer_id"`
	Loans      []LoanSummary `json:"loans"`
}
