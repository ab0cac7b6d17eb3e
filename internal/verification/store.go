// Package verification issues and consumes short-lived numeric codes bound
// to a phone number. One active code per number: issuing replaces whatever
// was there, which permanently invalidates the superseded code.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

const DefaultTTL = 5 * time.Minute

var (
	// ErrCodeMismatch covers wrong code, already-used code and never-issued
	// alike; callers cannot tell which, so a failed verify leaks nothing.
	ErrCodeMismatch = errors.New("verification code mismatch")
	ErrCodeExpired  = errors.New("verification code expired")
)

type Store interface {
	// Issue generates a fresh 4-digit code for the number and persists it,
	// replacing any prior code for the same number.
	Issue(ctx context.Context, phoneNumber string) (string, error)

	// Verify consumes the active code for the number. It succeeds at most
	// once per issued code; concurrent duplicates lose the conditional
	// used=false write and get ErrCodeMismatch.
	Verify(ctx context.Context, phoneNumber, code string) error
}

// generateCode draws uniformly from [1000, 9999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
