// Package mailer builds and delivers the notifier's outgoing email. All
// messages share a base template; welcome and price-drop emails go out via
// the Sender, the unsubscribe confirmations render as standalone HTML pages.
package mailer

import "context"

// Message is a fully-rendered outgoing email.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Sender delivers one email. Failures are reported per message, never
// batched; callers own retry policy.
type Sender interface {
	Send(ctx context.Context, to string, msg *Message) error
}
