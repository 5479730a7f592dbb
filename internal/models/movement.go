package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType identifies what a Movement recorded
type OperationType string

const (
	OperationDeposit          OperationType = "DEPOSIT"
	OperationWithdrawal       OperationType = "WITHDRAWAL"
	OperationTransferSent     OperationType = "TRANSFER_SENT"
	OperationTransferReceived OperationType = "TRANSFER_RECEIVED"
	OperationBalanceInquiry   OperationType = "BALANCE_INQUIRY"
)

// Movement is an immutable audit entry in an account log.
// ID is a sequence owned by the account, starting at 1.
type Movement struct {
	ID            int64           `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	Type          OperationType   `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	OriginID      int64           `json:"origin_account_id"`
	DestinationID *int64          `json:"destination_account_id,omitempty"`
	Description   string          `json:"description"`
}

// SignedAmount returns the effect of the movement on the account balance
func (m Movement) SignedAmount() decimal.Decimal {
	switch m.Type {
	case OperationDeposit, OperationTransferReceived:
		return m.Amount
	case OperationWithdrawal, OperationTransferSent:
		return m.Amount.Neg()
	default:
		return decimal.Zero
	}
}
