package email

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/Dan9191/bank-ledger/internal/config"
	"github.com/Dan9191/bank-ledger/internal/models"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		cfg:    cfg,
		logger: logger,
	}
	s.send = s.sendSMTP
	return s
}

func (s *Sender) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return e.Send(addr, auth)
}

func (s *Sender) deliver(to, subject, body string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body + "\nBest regards,\nBank Service")

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %s: %s", to, subject)
	return nil
}

// SendPaymentReminder sends an upcoming installment reminder
func (s *Sender) SendPaymentReminder(to, name string, dueDate time.Time, installment int, amount float64, currency models.Currency) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"This is a reminder that installment #%d of your loan, %.2f %s, is due on %s.\n"+
			"Please ensure sufficient funds are available in your account.\n",
		name, installment, amount, currency, dueDate.Format("2006-01-02"),
	)
	return s.deliver(to, "Upcoming Loan Installment Reminder", body)
}

// LoanApproved notifies the customer that the principal was credited
func (s *Sender) LoanApproved(ctx context.Context, customer *models.Customer, loan *models.Loan) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your loan of %.2f %s was approved and credited to account %d.\n"+
			"You will pay %d monthly installments of %.2f %s.\n",
		customer.Name, loan.Principal, loan.Currency, loan.AccountID,
		loan.TermMonths, loan.MonthlyInstallment(), loan.Currency,
	)
	return s.deliver(customer.Email, "Loan Approved", body)
}

// TransferCompleted notifies the owner of the source account
func (s *Sender) TransferCompleted(ctx context.Context, customer *models.Customer, source, dest *models.Account, amount decimal.Decimal) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"An amount of %s %s has been transferred from your account %d to account %d.\n"+
			"Transaction time: %s\n"+
			"Current balance: %s %s\n",
		customer.Name, amount.StringFixed(2), source.Currency, source.ID, dest.ID,
		time.Now().Format("2006-01-02 15:04:05"), source.Balance.StringFixed(2), source.Currency,
	)
	return s.deliver(customer.Email, "Transfer Notification", body)
}
