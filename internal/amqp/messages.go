package amqp

import (
	"encoding/json"
	"time"
)

// TransactionEventMessage is a lightweight notification that a transaction
// changed. It carries only identifiers; the worker fetches the full record
// from the database before exporting.
type TransactionEventMessage struct {
	Op        string    `json:"op"`
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEventMessage creates an event message for the given operation
func NewTransactionEventMessage(op, tipo, id, userID string) *TransactionEventMessage {
	return &TransactionEventMessage{
		Op:        op,
		Type:      tipo,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON creates a message from JSON bytes
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
