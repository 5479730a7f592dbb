package service

import (
	"context"

	"github.com/Dan9191/bank-ledger/internal/config"
	"github.com/Dan9191/bank-ledger/internal/integrations/score"
	"github.com/Dan9191/bank-ledger/internal/models"
	"github.com/Dan9191/bank-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Notifier is told about completed operations. Delivery failures are logged and never
// undo the operation.
type Notifier interface {
	LoanApproved(ctx context.Context, customer *models.Customer, loan *models.Loan) error
	TransferCompleted(ctx context.Context, customer *models.Customer, source, dest *models.Account, amount decimal.Decimal) error
}

// RateSource supplies the annual interest rate for new loans
type RateSource interface {
	AnnualRate(ctx context.Context) (float64, error)
}

// FixedRate is a RateSource that always returns the same rate
type FixedRate float64

func (r FixedRate) AnnualRate(ctx context.Context) (float64, error) {
	return float64(r), nil
}

// Service handles business logic
type Service struct {
	store     repository.Store
	gate      score.Gate
	rates     RateSource
	notifiers []Notifier
	locks     *accountLocks
	log       *logrus.Logger
	config    *config.Config
}

// NewService initializes a new service with a fixed rate source taken from the config
func NewService(store repository.Store, gate score.Gate, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		store:  store,
		gate:   gate,
		rates:  FixedRate(cfg.LoanAnnualRate),
		locks:  newAccountLocks(),
		log:    log,
		config: cfg,
	}
}

// SetRateSource replaces the loan rate source
func (s *Service) SetRateSource(rates RateSource) {
	s.rates = rates
}

// AddNotifier registers a notifier for approved loans and completed transfers
func (s *Service) AddNotifier(n Notifier) {
	s.notifiers = append(s.notifiers, n)
}

type callerKey struct{}

// WithCaller stores the authenticated customer id in ctx
func WithCaller(ctx context.Context, customerID int64) context.Context {
	return context.WithValue(ctx, callerKey{}, customerID)
}

// CallerFromContext returns the authenticated customer id, if any
func CallerFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(callerKey{}).(int64)
	return id, ok
}

// authorize fails when an authenticated caller acts on another customer's data.
// Calls without a caller are internal and always allowed.
func authorize(ctx context.Context, customerID int64) error {
	caller, ok := CallerFromContext(ctx)
	if ok && caller != customerID {
		return models.ErrForbidden
	}
	return nil
}

func (s *Service) notifyLoanApproved(ctx context.Context, customer *models.Customer, loan *models.Loan) {
	for _, n := range s.notifiers {
		if err := n.LoanApproved(ctx, customer, loan); err != nil {
			s.log.Warnf("Failed to notify about loan %s: %v", loan.ID, err)
		}
	}
}

func (s *Service) notifyTransfer(ctx context.Context, source, dest *models.Account, amount decimal.Decimal) {
	if len(s.notifiers) == 0 {
		return
	}
	customer, err := s.store.Customers().FindCustomer(ctx, source.CustomerID)
	if err != nil {
		s.log.Warnf("Skipping transfer notification for account %d: %v", source.ID, err)
		return
	}
	for _, n := range s.notifiers {
		if err := n.TransferCompleted(ctx, customer, source, dest, amount); err != nil {
			s.log.Warnf("Failed to notify about transfer from account %d: %v", source.ID, err)
		}
	}
}
