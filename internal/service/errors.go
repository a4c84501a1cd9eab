package service

import "errors"

var (
	// ErrMissingMetadata means neither the provider order metadata nor the
	// payment note yielded a usable order and user id.
	ErrMissingMetadata = errors.New("payment metadata missing order or user id")

	// ErrOrderNotFound and ErrUserNotFound mean the referenced records do not
	// exist locally. The money moved; these need manual review.
	ErrOrderNotFound = errors.New("order referenced by payment not found")
	ErrUserNotFound  = errors.New("user referenced by payment not found")

	// ErrAmountMismatch means the charged amount diverges from the order's
	// expected charge beyond tolerance.
	ErrAmountMismatch = errors.New("payment amount does not match order")

	// ErrDuplicatePayment is success-shaped: the payment was already
	// recorded, so the delivery is acknowledged without side effects.
	ErrDuplicatePayment = errors.New("payment already recorded")
)
