package domain

import (
	"errors"
	"fmt"

	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

// Sentinel errors for the capsule domain. Use errors.Is() to check these.
var (
	// ErrValidation indicates bad input rejected before any side effect.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthenticated indicates no identity is attached to the caller.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrPayment indicates the creation fee could not be paid and confirmed.
	ErrPayment = errors.New("payment failed")

	// ErrStorage indicates capsule content could not be stored.
	ErrStorage = errors.New("content storage failed")

	// ErrPersistence indicates a repository write failed after payment succeeded.
	ErrPersistence = errors.New("capsule persistence failed")

	// ErrBidTooLow indicates a bid does not clear the required premium.
	ErrBidTooLow = errors.New("bid too low")

	// ErrConcurrencyConflict indicates the capsule's current bid moved between read and write.
	ErrConcurrencyConflict = errors.New("concurrent bid conflict")

	ErrCapsuleNotFound      = errors.New("capsule not found")
	ErrCapsuleAlreadyExists = errors.New("capsule already exists")
	ErrBidNotFound          = errors.New("bid not found")

	// ErrAuctionDisabled indicates the capsule was created without early-access bidding.
	ErrAuctionDisabled = errors.New("auction not enabled for capsule")

	// ErrCapsuleAlreadyOpen indicates the capsule already left LOCKED; OPEN is terminal.
	ErrCapsuleAlreadyOpen = errors.New("capsule already open")

	// ErrNotYetDue indicates a scheduled unlock was attempted before its time.
	ErrNotYetDue = errors.New("capsule not yet due to open")

	ErrBidAlreadyResolved = errors.New("bid already resolved")
	ErrNotCreator         = errors.New("only the capsule creator may resolve bids")
	ErrSelfBid            = errors.New("creator cannot bid on own capsule")
)

// PaymentReason classifies why a payment did not produce a confirmed transaction.
type PaymentReason string

const (
	PaymentNoWalletProvider    PaymentReason = "NoWalletProvider"
	PaymentUserRejected        PaymentReason = "UserRejected"
	PaymentWrongNetwork        PaymentReason = "WrongNetwork"
	PaymentTransactionReverted PaymentReason = "TransactionReverted"
	PaymentTimeout             PaymentReason = "Timeout"
)

// PaymentError is returned by payment gateways. It matches ErrPayment.
// A payment error does not prove the chain saw nothing: TxID is set whenever a
// transaction was broadcast.
type PaymentError struct {
	Reason PaymentReason
	TxID   string
	Err    error
}

func (e *PaymentError) Error() string {
	msg := fmt.Sprintf("payment failed: %s", e.Reason)
	if e.TxID != "" {
		msg += " (tx " + e.TxID + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PaymentError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPayment}
	}
	return []error{ErrPayment, e.Err}
}

// StorageReason classifies content store failures.
type StorageReason string

const (
	StorageQuotaExceeded StorageReason = "QuotaExceeded"
	StorageNetworkError  StorageReason = "NetworkError"
	StorageBucketMissing StorageReason = "BucketMissing"
)

// StorageError is returned by content stores. It matches ErrStorage.
type StorageError struct {
	Reason StorageReason
	Err    error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("content storage failed: %s", e.Reason)
	}
	return fmt.Sprintf("content storage failed: %s: %v", e.Reason, e.Err)
}

func (e *StorageError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStorage}
	}
	return []error{ErrStorage, e.Err}
}

// BidTooLowError carries the smallest amount that would have been accepted.
type BidTooLowError struct {
	Minimum models.Amount
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid too low: minimum is %s", e.Minimum)
}

func (e *BidTooLowError) Unwrap() error { return ErrBidTooLow }

// PersistenceError reports a capsule that was paid for but not stored.
// TxID identifies the sunk payment for reconciliation.
type PersistenceError struct {
	TxID string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("capsule persistence failed after payment %s: %v", e.TxID, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPersistence}
	}
	return []error{ErrPersistence, e.Err}
}
