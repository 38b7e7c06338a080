package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageVersion is the payload version written by NewMessage.
const MessageVersion = 1

// ErrUnsupportedVersion is returned for payloads from a newer producer.
var ErrUnsupportedVersion = errors.New("unsupported message version")

// Message asks a worker to run one queued analysis.
type Message struct {
	AnalysisID string `json:"analysisId"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// NewMessage builds the current message version for an analysis.
func NewMessage(analysisID, requestID string, enqueuedAt time.Time) Message {
	return Message{
		AnalysisID: analysisID,
		RequestID:  requestID,
		EnqueuedAt: enqueuedAt.UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message. Payloads without a
// version are treated as version 1.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version == 0 {
		msg.Version = MessageVersion
	}
	if msg.Version > MessageVersion {
		return Message{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, msg.Version)
	}
	return msg, nil
}
