package solana

import "errors"

var (
	// ErrMismatchedSnapshot indicates the pre/post balance arrays and the
	// account key list do not share the same length. This is a contract
	// violation by the caller, not a malformed transaction.
	ErrMismatchedSnapshot = errors.New("balance snapshot and account keys have mismatched lengths")

	// ErrMalformedNotification indicates a stream message that does not
	// carry a transaction signature.
	ErrMalformedNotification = errors.New("notification missing transaction signature")

	// ErrStreamTerminated indicates the underlying log subscription closed
	// or errored. Observe returns it alongside whatever events were
	// accumulated before the stream ended.
	ErrStreamTerminated = errors.New("log subscription terminated")
)
