package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BankTransactionMessage is one movement reported by the bank connector.
// ExternalID is the bank's own transaction id and deduplicates redeliveries.
// Amount is a signed decimal string: positive for money in, negative for
// money out.
type BankTransactionMessage struct {
	MessageID   string    `json:"message_id"`
	ExternalID  string    `json:"external_id"`
	UserID      int64     `json:"user_id"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewBankTransactionMessage builds a message with a fresh message id.
func NewBankTransactionMessage(externalID string, userID int64, amount, currency, description string, occurredAt time.Time) *BankTransactionMessage {
	return &BankTransactionMessage{
		MessageID:   uuid.NewString(),
		ExternalID:  externalID,
		UserID:      userID,
		Amount:      amount,
		Currency:    currency,
		Description: description,
		OccurredAt:  occurredAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *BankTransactionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BankTransactionMessageFromJSON creates a message from JSON bytes
func BankTransactionMessageFromJSON(data []byte) (*BankTransactionMessage, error) {
	var msg BankTransactionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
