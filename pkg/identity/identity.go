// Package identity carries the authenticated caller through request contexts.
// The session middleware in pkg/auth fills it; domain services read it and treat
// a missing identity as "creation and bidding forbidden".
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// contextKey is an unexported type to prevent key collisions in context.
type contextKey string

const identityKey contextKey = "identity"

// ErrNoIdentity is returned when no authenticated identity exists in the context.
var ErrNoIdentity = errors.New("identity not found in context")

// Identity is the authenticated caller: a user and the wallet they connected.
type Identity struct {
	UserID        uuid.UUID
	WalletAddress string // empty when no wallet is connected
}

// WalletConnected reports whether the caller has a wallet address bound.
func (i Identity) WalletConnected() bool {
	return i.WalletAddress != ""
}

// With returns a new context carrying id.
func With(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromCtx extracts the authenticated identity. A zero UserID counts as absent.
func FromCtx(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.UserID == uuid.Nil {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}

// CurrentUser returns the identity or nil when the caller is anonymous.
func CurrentUser(ctx context.Context) *Identity {
	id, err := FromCtx(ctx)
	if err != nil {
		return nil
	}
	return &id
}
