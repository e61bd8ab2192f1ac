package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/FACorreiaa/shophub-api/internal/types"
)

var _ PasswordHasher = (*BcryptHasher)(nil)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash returns a salted digest; the salt is embedded in the result.
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify compares plaintext with digest in constant time. A mismatch is
	// (false, nil); a structurally corrupt digest is types.ErrMalformedCredential.
	Verify(ctx context.Context, plaintext, digest string) (bool, error)
	// Burn spends one verification worth of CPU without a real digest.
	Burn(ctx context.Context, plaintext string)
}

// BcryptHasher is a PasswordHasher on bcrypt. The weighted semaphore caps how
// many hashes run at once across all requests.
type BcryptHasher struct {
	cost  int
	sem   *semaphore.Weighted
	dummy []byte
}

func NewBcryptHasher(cost int, maxConcurrent int64) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("shophub-timing-equaliser"), cost)
	return &BcryptHasher{
		cost:  cost,
		sem:   semaphore.NewWeighted(maxConcurrent),
		dummy: dummy,
	}
}

func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	defer h.sem.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("verify password: %w", err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", types.ErrMalformedCredential, err)
	}
}

// Burn compares against a fixed digest so that a login for an unknown email
// costs as much as one with a wrong password.
func (h *BcryptHasher) Burn(ctx context.Context, plaintext string) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer h.sem.Release(1)
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}
