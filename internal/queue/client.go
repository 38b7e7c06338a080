package queue

import (
	"context"
	"errors"
)

// ErrDrop marks a message that can never succeed. Consumers remove it
// instead of leaving it for redelivery.
var ErrDrop = errors.New("drop message")

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Handler processes one message body. A nil error or one wrapping ErrDrop
// removes the message; any other error leaves it for redelivery.
type Handler func(ctx context.Context, body []byte) error

// Consumer delivers messages to a Handler until ctx is done, then waits for
// in-flight handlers before returning.
type Consumer interface {
	Consume(ctx context.Context, handler Handler) error
}

func concurrencyOr(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
