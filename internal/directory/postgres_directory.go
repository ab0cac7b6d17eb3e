package directory

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) LookupByNationalID(ctx context.Context, nationalID string) (*Account, error) {
	var a Account
	var branch sql.NullString

	err := d.db.QueryRowContext(ctx, `
		SELECT first_name, last_name, phone_number, password, branch_code
		FROM accounts
		WHERE national_id = $1 AND active = TRUE
	`, nationalID).Scan(&a.FirstName, &a.LastName, &a.PhoneNumber, &a.Password, &branch)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if branch.Valid {
		s := branch.String
		a.BranchCode = &s
	}
	return &a, nil
}
