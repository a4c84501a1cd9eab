// Package notification delivers transactional email and SMS.
package notification

import "context"

type Email struct {
	To      string
	Subject string
	HTML    string
}

type SMS struct {
	To   string
	Body string
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type SMSSender interface {
	Send(ctx context.Context, sms SMS) error
}
