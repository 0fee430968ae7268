package alerts

// Notifier raises operator alerts for failures that the external
// gateway channel cannot be told about. Implementations must be
// best-effort: a failed alert is logged by the caller, never retried
// into the request path.
type Notifier interface {
	LedgerWriteFailed(checkoutRequestID string, writeErr error) error
}

// Noop discards alerts. Used in development and tests.
type Noop struct{}

func (Noop) LedgerWriteFailed(string, error) error { return nil }
