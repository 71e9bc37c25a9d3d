// Package verify issues and checks short-lived contact verification codes
// so donor phone numbers and emails are confirmed before they receive
// blood request prompts.
package verify

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

// DefaultTTL bounds how long an issued code stays redeemable.
const DefaultTTL = 10 * time.Minute

// CodeStore persists issued code hashes with expiry.
type CodeStore interface {
	Put(ctx context.Context, userID domain.UserID, hash string, ttl time.Duration) error
	// Take returns the stored hash and removes it. Empty string when no
	// live code exists.
	Take(ctx context.Context, userID domain.UserID) (string, error)
}

// Service issues and redeems verification codes. Codes are single-use:
// a failed check burns the code so it cannot be brute-forced in place.
type Service struct {
	store CodeStore
	ttl   time.Duration
}

func NewService(store CodeStore, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, ttl: ttl}
}

// Issue generates and stores a fresh 6-digit code for the user,
// replacing any previous one. Only a bcrypt hash of the code is
// persisted; the plaintext exists solely in the delivery channel.
func (s *Service) Issue(ctx context.Context, userID domain.UserID) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate verification code")
	}
	code := fmt.Sprintf("%06d", n.Int64())
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash verification code")
	}
	if err := s.store.Put(ctx, userID, string(hashed), s.ttl); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification code")
	}
	return code, nil
}

// Confirm redeems a code. An expired, missing, or mismatched code returns
// CodeUnauthorized.
func (s *Service) Confirm(ctx context.Context, userID domain.UserID, code string) error {
	stored, err := s.store.Take(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification code")
	}
	if stored == "" || bcrypt.CompareHashAndPassword([]byte(stored), []byte(code)) != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid or expired verification code")
	}
	return nil
}
