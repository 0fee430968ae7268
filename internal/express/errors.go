package express

import "errors"

var (
	// ErrTokenUnavailable: the gateway credential could not be acquired;
	// nothing was sent upstream.
	ErrTokenUnavailable = errors.New("gateway token unavailable")

	// ErrCacheUnavailable: the push was accepted upstream but the
	// pending record could not be tracked. Fatal to the submission.
	ErrCacheUnavailable = errors.New("pending store unavailable")

	// ErrPendingNotFound: callback for an id that was never submitted,
	// already finalized, or expired. Benign on the callback channel.
	ErrPendingNotFound = errors.New("no pending transaction for callback")

	// ErrMalformedCallback: the payload carried no correlation id.
	ErrMalformedCallback = errors.New("malformed callback payload")

	// ErrLedgerWrite: the finalized record could not be persisted. The
	// gateway is still acknowledged; operators are alerted instead.
	ErrLedgerWrite = errors.New("ledger write failed")
)
