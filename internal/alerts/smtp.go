package alerts

import (
	"fmt"
	"time"

	mail "gopkg.in/mail.v2"
)

// SMTPNotifier emails the operations inbox when a callback could not be
// written to the ledger. Such a record is unrecoverable by retrying the
// gateway, so someone has to reconcile it by hand.
type SMTPNotifier struct {
	dialer    *mail.Dialer
	fromEmail string
	toEmail   string
}

func NewSMTPNotifier(host string, port int, username, password, fromEmail, toEmail string) *SMTPNotifier {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 10 * time.Second

	return &SMTPNotifier{
		dialer:    dialer,
		fromEmail: fromEmail,
		toEmail:   toEmail,
	}
}

func (n *SMTPNotifier) LedgerWriteFailed(checkoutRequestID string, writeErr error) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", n.fromEmail)
	msg.SetHeader("To", n.toEmail)
	msg.SetHeader("Subject", fmt.Sprintf("ledger write failed for %s", checkoutRequestID))
	msg.SetBody("text/plain", fmt.Sprintf(
		"A gateway callback was acknowledged but could not be written to the ledger.\n\n"+
			"CheckoutRequestID: %s\nError: %v\nTime: %s\n\n"+
			"The pending cache record was kept until its TTL; reconcile manually against the gateway portal.",
		checkoutRequestID, writeErr, time.Now().UTC().Format(time.RFC3339),
	))

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send ledger alert: %w", err)
	}
	return nil
}
