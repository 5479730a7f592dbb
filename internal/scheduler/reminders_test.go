package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Dan9191/bank-ledger/internal/models"
	"github.com/Dan9191/bank-ledger/internal/repository"
	"github.com/sirupsen/logrus"
)

type sentReminder struct {
	to          string
	installment int
	due         time.Time
}

type fakeSender struct {
	sent []sentReminder
	fail map[string]bool
}

func (f *fakeSender) SendPaymentReminder(to, name string, dueDate time.Time, installment int, amount float64, currency models.Currency) error {
	if f.fail[to] {
		return errors.New("mailbox full")
	}
	f.sent = append(f.sent, sentReminder{to: to, installment: installment, due: dueDate})
	return nil
}

func TestRunSendsRemindersInWindow(t *testing.T) {
	ctx := context.Background()
	store := repository.NewKVStore(repository.NewMemoryKV())
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for _, c := range []*models.Customer{
		{ID: 1, Name: "Due soon", Email: "soon@example.com"},
		{ID: 2, Name: "Due later", Email: "later@example.com"},
		{ID: 3, Name: "Failing", Email: "fail@example.com"},
		{ID: 4, Name: "Overdue", Email: "overdue@example.com"},
	} {
		if err := store.Customers().CreateCustomer(ctx, c); err != nil {
			t.Fatalf("CreateCustomer: %v", err)
		}
	}

	newLoan := func(id string, customerID int64, requested time.Time, paid int, status models.LoanStatus) {
		loan := models.NewLoan(id, customerID, 1200, 12, models.CurrencyLocal, 0.05)
		loan.RequestedAt = requested
		loan.PaymentsMade = paid
		loan.Status = status
		plan, err := models.BuildPaymentPlan(loan)
		if err != nil {
			t.Fatalf("BuildPaymentPlan: %v", err)
		}
		loan.PaymentPlan = plan
		if err := store.Loans().SaveLoan(ctx, loan); err != nil {
			t.Fatalf("SaveLoan: %v", err)
		}
	}
	// second installment due 2025-03-12
	newLoan("soon", 1, time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC), 1, models.LoanApproved)
	// first installment due 2025-04-01
	newLoan("later", 2, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 0, models.LoanApproved)
	newLoan("failing", 3, time.Date(2025, 2, 12, 0, 0, 0, 0, time.UTC), 0, models.LoanActive)
	// installments 1 and 2 passed unpaid, third due 2025-03-12
	newLoan("overdue", 4, time.Date(2024, 12, 12, 0, 0, 0, 0, time.UTC), 0, models.LoanActive)
	newLoan("paid", 1, time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC), 12, models.LoanPaid)

	log := logrus.New()
	log.SetOutput(io.Discard)
	sender := &fakeSender{fail: map[string]bool{"fail@example.com": true}}
	r := NewReminders(store, sender, 5, log)
	r.now = func() time.Time { return now }

	sent, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sent != 2 || len(sender.sent) != 2 {
		t.Fatalf("sent = %d (%+v), want 2", sent, sender.sent)
	}
	want := map[string]int{"soon@example.com": 2, "overdue@example.com": 3}
	due := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	for _, got := range sender.sent {
		if want[got.to] != got.installment || !got.due.Equal(due) {
			t.Errorf("unexpected reminder %+v", got)
		}
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	r := NewReminders(repository.NewKVStore(repository.NewMemoryKV()), &fakeSender{}, 5, log)
	if err := r.Start("not a cron spec"); err == nil {
		r.Stop()
		t.Fatal("expected an error for an invalid schedule")
	}
}
