package notification

import "context"

// Message is a transactional email
type Message struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer sends transactional email. Implementations live in the
// infrastructure layer; tests use in-memory fakes.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
