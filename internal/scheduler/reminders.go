package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/bank-ledger/internal/models"
	"github.com/Dan9191/bank-ledger/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReminderSender delivers installment reminders
type ReminderSender interface {
	SendPaymentReminder(to, name string, dueDate time.Time, installment int, amount float64, currency models.Currency) error
}

// Reminders periodically warns customers about installments due soon
type Reminders struct {
	store     repository.Store
	sender    ReminderSender
	daysAhead int
	now       func() time.Time
	cron      *cron.Cron
	log       *logrus.Logger
}

// NewReminders creates the reminder job; call Start to schedule it
func NewReminders(store repository.Store, sender ReminderSender, daysAhead int, log *logrus.Logger) *Reminders {
	return &Reminders{
		store:     store,
		sender:    sender,
		daysAhead: daysAhead,
		now:       time.Now,
		cron:      cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log)))),
		log:       log,
	}
}

// Start schedules Run with the given cron spec and starts the scheduler
func (r *Reminders) Start(spec string) error {
	if _, err := r.cron.AddFunc(spec, func() {
		if _, err := r.Run(context.Background()); err != nil {
			r.log.Errorf("Reminder run failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule reminders %q: %w", spec, err)
	}
	r.log.Infof("Scheduled installment reminders: %s", spec)
	r.cron.Start()
	return nil
}

// Stop stops the scheduler; the returned context is done when running jobs finish
func (r *Reminders) Stop() context.Context {
	return r.cron.Stop()
}

// Run sends a reminder for every active loan whose next installment falls due
// within the configured window and returns how many were sent
func (r *Reminders) Run(ctx context.Context) (int, error) {
	loans, err := r.store.Loans().FindActiveLoans(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active loans: %w", err)
	}

	now := r.now()
	horizon := now.AddDate(0, 0, r.daysAhead)
	sent := 0
	for _, loan := range loans {
		due, installment, ok := loan.NextDueDate(now)
		if !ok || due.After(horizon) {
			continue
		}
		customer, err := r.store.Customers().FindCustomer(ctx, loan.CustomerID)
		if err != nil {
			r.log.Warnf("Skipping reminder for loan %s: %v", loan.ID, err)
			continue
		}
		if err := r.sender.SendPaymentReminder(customer.Email, customer.Name, due, installment, loan.MonthlyInstallment(), loan.Currency); err != nil {
			r.log.Warnf("Failed to send reminder for loan %s: %v", loan.ID, err)
			continue
		}
		sent++
	}

	r.log.Infof("Installment reminders sent: %d of %d active loans", sent, len(loans))
	return sent, nil
}
