package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Dan9191/bank-ledger/internal/models"
	"github.com/Dan9191/bank-ledger/internal/repository"
	"github.com/Dan9191/bank-ledger/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loan rejection reasons
const (
	ReasonCustomerMissing    = "customer does not exist"
	ReasonNoCurrencyAccount  = "no account in %s"
	ReasonScoreUnavailable   = "credit score unavailable"
	ReasonDisbursementFailed = "loan disbursement failed"
	ReasonLookupFailed       = "loan request could not be processed"
)

// RequestLoan runs the loan workflow. Every business rejection comes back as a
// REJECTED response with a nil error. Storage failures also produce a REJECTED
// response, together with the error; no money moved and nothing was persisted.
func (s *Service) RequestLoan(ctx context.Context, req models.LoanRequest) (*models.LoanResponse, error) {
	if err := authorize(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	if err := models.ValidateAmount(decimal.NewFromFloat(req.Principal)); err != nil {
		return s.rejectLoan(req, models.ErrInvalidAmount.Error()), nil
	}
	if req.TermMonths <= 0 {
		return s.rejectLoan(req, models.ErrInvalidTerm.Error()), nil
	}

	customer, err := s.store.Customers().FindCustomer(ctx, req.CustomerID)
	if errors.Is(err, models.ErrCustomerNotFound) {
		return s.rejectLoan(req, ReasonCustomerMissing), nil
	}
	if err != nil {
		return s.rejectLoan(req, ReasonLookupFailed), fmt.Errorf("failed to load customer %d: %w", req.CustomerID, err)
	}

	currency, err := models.ParseCurrency(req.Currency)
	if err != nil {
		return s.rejectLoan(req, fmt.Sprintf(ReasonNoCurrencyAccount, req.Currency)), nil
	}
	accounts, err := s.store.Accounts().FindAccountsByCustomer(ctx, customer.ID)
	if err != nil {
		return s.rejectLoan(req, ReasonLookupFailed), fmt.Errorf("failed to load accounts of customer %d: %w", customer.ID, err)
	}
	var target *models.Account
	for _, a := range accounts {
		if a.Currency == currency {
			target = a
			break
		}
	}
	if target == nil {
		return s.rejectLoan(req, fmt.Sprintf(ReasonNoCurrencyAccount, currency)), nil
	}

	result, err := s.gate.Evaluate(ctx, customer.ID)
	if err != nil {
		s.log.Errorf("Credit score lookup failed for customer %d: %v", customer.ID, err)
		return s.rejectLoan(req, ReasonScoreUnavailable), nil
	}
	if !result.Eligible {
		s.log.Infof("Customer %d scored %d: %s", customer.ID, result.Score, result.Message)
		return s.rejectLoan(req, models.ErrCreditRejected.Error()), nil
	}

	loan := models.NewLoan(uuid.NewString(), customer.ID, req.Principal, req.TermMonths, currency, s.annualRate(ctx))
	plan, err := models.BuildPaymentPlan(loan)
	if err != nil {
		return s.rejectLoan(req, err.Error()), nil
	}
	loan.PaymentPlan = plan
	loan.AccountID = target.ID
	loan.Status = models.LoanApproved
	loan.HMAC = s.signLoan(loan)

	if err := s.disburse(ctx, loan); err != nil {
		loan.Status = models.LoanRejected
		s.log.Errorf("Failed to disburse loan %s to account %d: %v", loan.ID, loan.AccountID, err)
		return &models.LoanResponse{Status: models.LoanRejected, Message: ReasonDisbursementFailed},
			fmt.Errorf("failed to disburse loan: %w", err)
	}

	s.log.Infof("Loan %s approved for customer %d: %.2f %s over %d months, credited to account %d",
		loan.ID, customer.ID, loan.Principal, loan.Currency, loan.TermMonths, loan.AccountID)
	s.notifyLoanApproved(ctx, customer, loan)

	return &models.LoanResponse{
		Status:      models.LoanApproved,
		Message:     fmt.Sprintf("loan approved and credited to account %d", loan.AccountID),
		PaymentPlan: loan.PaymentPlan,
	}, nil
}

// disburse credits the principal and stores the loan in one unit of work
func (s *Service) disburse(ctx context.Context, loan *models.Loan) error {
	unlock := s.locks.lock(loan.AccountID)
	defer unlock()

	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		account, err := tx.Accounts().FindAccount(ctx, loan.AccountID)
		if err != nil {
			return err
		}
		if account.Currency != loan.Currency {
			return models.ErrCurrencyMismatch
		}
		if _, err := account.Deposit(decimal.NewFromFloat(loan.Principal), models.DescriptionLoanDisbursement); err != nil {
			return err
		}
		if err := tx.Accounts().SaveAccount(ctx, account); err != nil {
			return err
		}
		return tx.Loans().SaveLoan(ctx, loan)
	})
}

func (s *Service) rejectLoan(req models.LoanRequest, reason string) *models.LoanResponse {
	s.log.Warnf("Loan request of customer %d rejected: %s", req.CustomerID, reason)
	return &models.LoanResponse{Status: models.LoanRejected, Message: reason}
}

// annualRate asks the rate source and falls back to the configured rate
func (s *Service) annualRate(ctx context.Context) float64 {
	rate, err := s.rates.AnnualRate(ctx)
	if err != nil || rate <= 0 {
		s.log.Warnf("Rate source unavailable, using fixed rate %.4f: %v", s.config.LoanAnnualRate, err)
		return s.config.LoanAnnualRate
	}
	return rate
}

func (s *Service) signLoan(loan *models.Loan) string {
	return utils.GenerateHMAC(s.config.HMACSecret, loanFields(loan)...)
}

func loanFields(loan *models.Loan) []string {
	return []string{
		loan.ID,
		strconv.FormatInt(loan.CustomerID, 10),
		strconv.FormatInt(loan.AccountID, 10),
		strconv.FormatFloat(loan.Principal, 'f', -1, 64),
		strconv.Itoa(loan.TermMonths),
		string(loan.Currency),
		strconv.FormatFloat(loan.AnnualRate, 'f', -1, 64),
	}
}

// GetLoan returns a stored loan after checking its signature
func (s *Service) GetLoan(ctx context.Context, id string) (*models.Loan, error) {
	loan, err := s.store.Loans().FindLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, loan.CustomerID); err != nil {
		return nil, err
	}
	if !utils.VerifyHMAC(s.config.HMACSecret, loan.HMAC, loanFields(loan)...) {
		s.log.Errorf("Loan %s failed signature verification", loan.ID)
		return nil, models.ErrLoanIntegrity
	}
	return loan, nil
}

// ListActiveLoans returns summaries of the customer's APPROVED or ACTIVE loans
func (s *Service) ListActiveLoans(ctx context.Context, customerID int64) (*models.CustomerLoans, error) {
	if err := authorize(ctx, customerID); err != nil {
		return nil, err
	}
	if _, err := s.store.Customers().FindCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	loans, err := s.store.Loans().FindLoansByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	result := &models.CustomerLoans{CustomerID: customerID, Loans: []models.LoanSummary{}}
	for _, loan := range loans {
		if loan.IsActive() {
			result.Loans = append(result.Loans, loan.Summary())
		}
	}
	return result, nil
}

// CurrentAnnualRate is the rate a loan requested now would get
func (s *Service) CurrentAnnualRate(ctx context.Context) float64 {
	return s.annualRate(ctx)
}
