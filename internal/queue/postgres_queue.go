package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wasycim/cargo-notify/internal/model"
	"github.com/wasycim/cargo-notify/internal/phone"
)

type PostgresQueue struct {
	db *sql.DB
}

func NewPostgresQueue(db *sql.DB) *PostgresQueue {
	return &PostgresQueue{db: db}
}

func validateRecipient(phoneNumber, body string) (string, error) {
	p := phone.Normalize(phoneNumber)
	if p == "" {
		return "", ErrEmptyPhone
	}
	if body == "" {
		return "", ErrEmptyMessage
	}
	return p, nil
}

func (q *PostgresQueue) Enqueue(ctx context.Context, phoneNumber, body string, typ model.MessageType, branchCode *string) (int64, error) {
	p, err := validateRecipient(phoneNumber, body)
	if err != nil {
		return 0, err
	}

	var id int64
	err = q.db.QueryRowContext(ctx, `
		INSERT INTO messages (phone_number, body, message_type, status, branch_code, created_at, updated_at)
		VALUES ($1, $2, $3, 'pending', $4, now(), now())
		RETURNING id
	`, p, body, string(typ), branchCode).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("enqueue: %w", err)
	}
	return id, nil
}

// EnqueueBatch inserts one pending row per recipient inside a single
// transaction. Either every row is committed or none is; callers must not
// assume partial success.
func (q *PostgresQueue) EnqueueBatch(ctx context.Context, phoneNumbers []string, body string, typ model.MessageType, branchCode *string) ([]int64, error) {
	if len(phoneNumbers) == 0 {
		return nil, ErrEmptyBatch
	}

	normalized := make([]string, 0, len(phoneNumbers))
	for _, raw := range phoneNumbers {
		p, err := validateRecipient(raw, body)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, p)
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("enqueue batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, 0, len(normalized))
	for _, p := range normalized {
		var id int64
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO messages (phone_number, body, message_type, status, branch_code, created_at, updated_at)
			VALUES ($1, $2, $3, 'pending', $4, now(), now())
			RETURNING id
		`, p, body, string(typ), branchCode).Scan(&id); err != nil {
			return nil, fmt.Errorf("enqueue batch: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("enqueue batch: %w", err)
	}
	return ids, nil
}

func (q *PostgresQueue) ListPending(ctx context.Context, branchCode string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, phone_number, body, message_type, status, branch_code,
		       last_error, sent_at, created_at, updated_at
		FROM messages
		WHERE status = 'pending'
	`
	args := []any{limit}
	if branchCode != "" {
		query += ` AND branch_code = $2`
		args = append(args, branchCode)
	}
	query += ` LIMIT $1`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (q *PostgresQueue) MarkSent(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE messages
		SET status = 'sent',
		    sent_at = now(),
		    updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return err
	}
	return q.checkMark(ctx, res, id, model.Sent)
}

func (q *PostgresQueue) MarkFailed(ctx context.Context, id int64, reason string) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE messages
		SET status = 'failed',
		    last_error = $2,
		    updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, reason)
	if err != nil {
		return err
	}
	return q.checkMark(ctx, res, id, model.Failed)
}

// checkMark resolves a conditional update that matched nothing: an already
// reached terminal state is a no-op, the other terminal state is rejected.
func (q *PostgresQueue) checkMark(ctx context.Context, res sql.Result, id int64, want model.Status) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var current string
	err = q.db.QueryRowContext(ctx, `SELECT status FROM messages WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if model.Status(current) == want {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, want)
}

func (q *PostgresQueue) ListByStatus(ctx context.Context, status model.Status, limit, offset int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT id, phone_number, body, message_type, status, branch_code,
		       last_error, sent_at, created_at, updated_at
		FROM messages
		WHERE status = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	var out []model.Message
	for rows.Next() {
		var m model.Message
		var status, typ string
		var branch, lastErr sql.NullString
		var sentAt sql.NullTime

		if err := rows.Scan(
			&m.ID,
			&m.PhoneNumber,
			&m.Body,
			&typ,
			&status,
			&branch,
			&lastErr,
			&sentAt,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, err
		}

		m.Type = model.MessageType(typ)
		m.Status = model.Status(status)

		if branch.Valid {
			s := branch.String
			m.BranchCode = &s
		}
		if lastErr.Valid {
			s := lastErr.String
			m.LastError = &s
		}
		if sentAt.Valid {
			t := sentAt.Time
			m.SentAt = &t
		}

		out = append(out, m)
	}
	return out, rows.Err()
}
