package errors

import (
	"errors"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrNilUser               = errors.New("user is nil")
	ErrBookNotFound          = errors.New("book not found")
	ErrNilPurchase           = errors.New("purchase is nil")
	ErrInvalidPurchaseStatus = errors.New("invalid purchase status")
	ErrPurchaseNotFound      = errors.New("purchase not found")
	ErrAlreadyPurchased      = errors.New("book already purchased")
	ErrNotPurchased          = errors.New("book not purchased")
	ErrPurchaseLocked        = errors.New("purchase is being processed")
	ErrNilEvent              = errors.New("usage event is nil")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUsernameExists        = errors.New("username already exists")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInternal              = errors.New("internal error")

	// Payment processor failures. Transient ones may be retried by the caller.
	ErrProcessorTransient = errors.New("payment processor unavailable")
	ErrProcessorRejected  = errors.New("payment processor rejected request")
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrInvalidSignature   = errors.New("invalid notification signature")
)
