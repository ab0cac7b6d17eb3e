package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wasycim/cargo-notify/internal/phone"
)

// PostgresStore is the durable implementation. The phone number is the
// primary key, so issuing is a plain upsert and the single-active-code
// invariant holds by construction.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewPostgresStore(db *sql.DB, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostgresStore{db: db, ttl: ttl}
}

func (s *PostgresStore) Issue(ctx context.Context, phoneNumber string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	key := phone.Normalize(phoneNumber)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_codes (phone_number, code, used, created_at)
		VALUES ($1, $2, FALSE, now())
		ON CONFLICT (phone_number)
		DO UPDATE SET code = EXCLUDED.code, used = FALSE, created_at = now()
	`, key, code)
	if err != nil {
		return "", fmt.Errorf("issue code: %w", err)
	}
	return code, nil
}

func (s *PostgresStore) Verify(ctx context.Context, phoneNumber, code string) error {
	key := phone.Normalize(phoneNumber)
	cutoff := time.Now().UTC().Add(-s.ttl)

	// Conditional write: only one of two concurrent verifies for the same
	// code can flip used. The loser falls through to the mismatch path.
	res, err := s.db.ExecContext(ctx, `
		UPDATE verification_codes
		SET used = TRUE
		WHERE phone_number = $1 AND code = $2 AND used = FALSE AND created_at >= $3
	`, key, code, cutoff)
	if err != nil {
		return fmt.Errorf("verify code: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify code: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Distinguish expired from mismatch. A matching unused row can only
	// have missed the update because of the age cutoff.
	var createdAt time.Time
	err = s.db.QueryRowContext(ctx, `
		SELECT created_at FROM verification_codes
		WHERE phone_number = $1 AND code = $2 AND used = FALSE
	`, key, code).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCodeMismatch
	}
	if err != nil {
		return fmt.Errorf("verify code: %w", err)
	}
	return ErrCodeExpired
}
