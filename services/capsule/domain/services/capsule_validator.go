package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

// ValidateName enforces business rules beyond the CapsuleName constructor:
// no surrounding whitespace, no control characters, not blank.
func ValidateName(name models.CapsuleName) error {
	s := name.String()

	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("capsule name must not be only whitespace")
	}
	if s != strings.TrimSpace(s) {
		return fmt.Errorf("capsule name must not have leading or trailing whitespace")
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("capsule name must not contain control characters")
		}
	}
	return nil
}

// ValidateOpenAt requires the unlock time to be set and in the future.
func ValidateOpenAt(openAt, now time.Time) error {
	if openAt.IsZero() {
		return fmt.Errorf("open_at must be set")
	}
	if !openAt.After(now) {
		return fmt.Errorf("open_at must be in the future")
	}
	return nil
}

// ValidateCapsuleDraft checks everything about a new capsule that is known
// before the creation fee is paid. Create runs it ahead of the payment.
func ValidateCapsuleDraft(c *models.Capsule, now time.Time) error {
	if err := validateCapsuleFields(c); err != nil {
		return err
	}
	return ValidateOpenAt(c.ScheduledOpenAt, now)
}

// ValidateCapsuleForCreation is ValidateCapsuleDraft plus the payment reference.
func ValidateCapsuleForCreation(c *models.Capsule, now time.Time) error {
	if err := ValidateCapsuleDraft(c, now); err != nil {
		return err
	}
	return validatePayment(c)
}

// ValidateOrphanedCapsule checks a paid capsule replayed from the reconciliation
// queue. Its open time was valid when requested and may have passed since.
func ValidateOrphanedCapsule(c *models.Capsule) error {
	if err := validateCapsuleFields(c); err != nil {
		return err
	}
	if c.ScheduledOpenAt.IsZero() {
		return fmt.Errorf("open_at must be set")
	}
	return validatePayment(c)
}

func validateCapsuleFields(c *models.Capsule) error {
	if c == nil {
		return fmt.Errorf("capsule cannot be nil")
	}
	if err := ValidateName(c.Name); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}
	if c.ID == uuid.Nil {
		return fmt.Errorf("id must be set")
	}
	if c.CreatorID == uuid.Nil {
		return fmt.Errorf("creator_id must be set")
	}
	if !c.Network.Valid() {
		return fmt.Errorf("unsupported network %q", c.Network)
	}
	if !c.FloorBid.IsPositive() {
		return fmt.Errorf("floor bid must be positive")
	}
	return nil
}

func validatePayment(c *models.Capsule) error {
	if c.PaymentTxID == "" {
		return fmt.Errorf("payment_tx_id must be set")
	}
	return nil
}
