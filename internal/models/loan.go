package models

import (
	"math"
	"time"
)

// DefaultAnnualRate is the fixed annual interest rate applied to new loans
const DefaultAnnualRate = 0.05

// LoanStatus is the lifecycle state of a loan.
// ACTIVE and PAID exist in the model but no workflow drives them yet.
type LoanStatus string

const (
	LoanPending  LoanStatus = "PENDING"
	LoanApproved LoanStatus = "APPROVED"
	LoanRejected LoanStatus = "REJECTED"
	LoanActive   LoanStatus = "ACTIVE"
	LoanPaid     LoanStatus = "PAID"
)

// Installment is one entry of a payment plan
type Installment struct {
	Number int     `json:"installment_number"`
	Amount float64 `json:"amount"`
}

// Loan represents a credit line requested by a customer
type Loan struct {
	ID               string        `json:"id"`
	CustomerID       int64         `json:"customer_id"`
	AccountID        int64         `json:"account_id"`
	Principal        float64       `json:"principal"`
	TermMonths       int           `json:"term_months"`
	Currency         Currency      `json:"currency"`
	AnnualRate       float64       `json:"annual_rate"`
	RequestedAt      time.Time     `json:"requested_at"`
	Status           LoanStatus    `json:"status"`
	PaymentPlan      []Installment `json:"payment_plan"`
	PaymentsMade     int           `json:"payments_made"`
	RemainingBalance float64       `json:"remaining_balance"`
	HMAC             string        `json:"hmac"`
}

// NewLoan returns a PENDING loan whose remaining balance equals the principal
func NewLoan(id string, customerID int64, principal float64, termMonths int, currency Currency, annualRate float64) *Loan {
	return &Loan{
		ID:               id,
		CustomerID:       customerID,
		Principal:        principal,
		TermMonths:       termMonths,
		Currency:         currency,
		AnnualRate:       annualRate,
		RequestedAt:      time.Now().UTC(),
		Status:           LoanPending,
		RemainingBalance: principal,
	}
}

// ComputeMonthlyInstallment returns the fixed annuity payment
// P * r * (1+r)^n / ((1+r)^n - 1) with r = annualRate/12. No rounding is applied.
// A zero rate degenerates to principal/termMonths.
func ComputeMonthlyInstallment(principal, annualRate float64, termMonths int) (float64, error) {
	if termMonths <= 0 {
		return 0, ErrInvalidTerm
	}
	r := annualRate / 12
	if r == 0 {
		return principal / float64(termMonths), nil
	}
	factor := math.Pow(1+r, float64(termMonths))
	return principal * r * factor / (factor - 1), nil
}

// BuildPaymentPlan returns TermMonths installments numbered from 1, all with the same amount
func BuildPaymentPlan(loan *Loan) ([]Installment, error) {
	amount, err := ComputeMonthlyInstallment(loan.Principal, loan.AnnualRate, loan.TermMonths)
	if err != nil {
		return nil, err
	}
	plan := make([]Installment, 0, loan.TermMonths)
	for i := 1; i <= loan.TermMonths; i++ {
		plan = append(plan, Installment{Number: i, Amount: amount})
	}
	return plan, nil
}

// IsActive reports whether the loan shows up in the active loans listing
func (l *Loan) IsActive() bool {
	return l.Status == LoanApproved || l.Status == LoanActive
}

// MonthlyInstallment returns the plan's fixed amount, or 0 without a plan
func (l *Loan) MonthlyInstallment() float64 {
	if len(l.PaymentPlan) == 0 {
		return 0
	}
	return l.PaymentPlan[0].Amount
}

// NextDueDate returns the first unpaid installment due at or after now, with its
// number. Installments already past due are skipped; PaymentsMade only moves when
// a repayment is recorded. It reports false once no installment is left.
func (l *Loan) NextDueDate(now time.Time) (time.Time, int, bool) {
	for n := l.PaymentsMade + 1; n <= len(l.PaymentPlan); n++ {
		if due := l.RequestedAt.AddDate(0, n, 0); !due.Before(now) {
			return due, n, true
		}
	}
	return time.Time{}, 0, false
}

// Summary maps the loan to its listing view
func (l *Loan) Summary() LoanSummary {
	return LoanSummary{
		ID:               l.ID,
		Principal:        l.Principal,
		TermMonths:       l.TermMonths,
		PaymentsMade:     l.PaymentsMade,
		RemainingBalance: l.RemainingBalance,
		Currency:         l.Currency,
	}
}
