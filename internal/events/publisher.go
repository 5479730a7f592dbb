// Package events publishes ledger and loan events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dan9191/bank-ledger/internal/models"
	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Routing keys
const (
	LoanApprovedKey      = "loan.approved"
	TransferCompletedKey = "transfer.completed"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends JSON events to a topic exchange
type Publisher struct {
	conn     *amqp091.Connection
	channel  channel
	exchange string
	log      *logrus.Logger
}

// NewPublisher connects to RabbitMQ and declares a durable topic exchange
func NewPublisher(url, exchange string, log *logrus.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

// LoanApprovedEvent is published after a loan is disbursed and stored
type LoanApprovedEvent struct {
	LoanID      string          `json:"loan_id"`
	CustomerID  int64           `json:"customer_id"`
	AccountID   int64           `json:"account_id"`
	Principal   float64         `json:"principal"`
	Currency    models.Currency `json:"currency"`
	TermMonths  int             `json:"term_months"`
	Installment float64         `json:"installment"`
}

// TransferCompletedEvent is published after both sides of a transfer are stored
type TransferCompletedEvent struct {
	SourceAccountID int64           `json:"source_account_id"`
	DestAccountID   int64           `json:"dest_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        models.Currency `json:"currency"`
}

// LoanApproved publishes a loan.approved event
func (p *Publisher) LoanApproved(ctx context.Context, customer *models.Customer, loan *models.Loan) error {
	return p.publish(ctx, LoanApprovedKey, LoanApprovedEvent{
		LoanID:      loan.ID,
		CustomerID:  loan.CustomerID,
		AccountID:   loan.AccountID,
		Principal:   loan.Principal,
		Currency:    loan.Currency,
		TermMonths:  loan.TermMonths,
		Installment: loan.MonthlyInstallment(),
	})
}

// TransferCompleted publishes a transfer.completed event
func (p *Publisher) TransferCompleted(ctx context.Context, customer *models.Customer, source, dest *models.Account, amount decimal.Decimal) error {
	return p.publish(ctx, TransferCompletedKey, TransferCompletedEvent{
		SourceAccountID: source.ID,
		DestAccountID:   dest.ID,
		Amount:          amount,
		Currency:        source.Currency,
	})
}

func (p *Publisher) publish(ctx context.Context, key string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", key, err)
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", key, err)
	}
	p.log.Debugf("Published %s event", key)
	return nil
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
