package directory

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("account not found")

// Account is a branch staff record. Password is stored in the clear by the
// upstream system; this service only carries it through the password-reset
// message.
type Account struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Password    string
	BranchCode  *string
}

// AccountDirectory looks up active staff accounts. Inactive accounts are
// invisible; lookups against them return ErrNotFound.
type AccountDirectory interface {
	LookupByNationalID(ctx context.Context, nationalID string) (*Account, error)
}
