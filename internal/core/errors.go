package core

import "errors"

// Every error below is fatal to the operation that raised it: nothing is
// retried and no partial state survives. Callers resubmit with corrected
// inputs (fresh deadline, larger allowance, unused identifier).
var (
	// ErrInvalidSignature covers both an untrusted recovered signer and a
	// caller other than the one the authorization was issued to.
	ErrInvalidSignature = errors.New("invalid payment authorization")

	// ErrExpired means the current time is not strictly before the deadline.
	ErrExpired = errors.New("authorization deadline passed")

	ErrIdentifierTooLong   = errors.New("subscription identifier too long")
	ErrDuplicateIdentifier = errors.New("subscription already exists")

	// ErrTransferFailed wraps any refusal by the token ledger, most
	// commonly insufficient balance or allowance.
	ErrTransferFailed = errors.New("token transfer failed")

	ErrUnauthorized = errors.New("caller is not the owner")
	ErrZeroAddress  = errors.New("zero address not allowed")
	ErrNotFound     = errors.New("subscription not found")
)
