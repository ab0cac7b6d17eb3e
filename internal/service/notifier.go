package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wasycim/cargo-notify/internal/directory"
	"github.com/wasycim/cargo-notify/internal/model"
	"github.com/wasycim/cargo-notify/internal/phone"
	"github.com/wasycim/cargo-notify/internal/queue"
	"github.com/wasycim/cargo-notify/internal/sms"
	"github.com/wasycim/cargo-notify/internal/verification"
)

var (
	ErrMissingCredentials = errors.New("national id and phone number are required")
	ErrInvalidNationalID  = errors.New("national id must be 11 digits")
	ErrInvalidPhone       = errors.New("invalid mobile phone number")
)

// Notifier implements the producer side of the pipeline: validate a request,
// then make exactly one queue or code-store call. All durable state lives
// behind those interfaces, so Notifier itself is stateless and safe to share.
type Notifier struct {
	queue     queue.Queue
	codes     verification.Store
	directory directory.AccountDirectory

	sms                 sms.Client
	transportConfigured bool
}

func NewNotifier(q queue.Queue, codes verification.Store, dir directory.AccountDirectory) *Notifier {
	return &Notifier{queue: q, codes: codes, directory: dir}
}

// WithTransport enables real SMS delivery. Without it SendCode runs in dev
// mode and hands the code back to the caller.
func (n *Notifier) WithTransport(client sms.Client) *Notifier {
	n.sms = client
	n.transportConfigured = client != nil
	return n
}

// PasswordReset looks up the active account for the credential pair and
// queues a WhatsApp message carrying the stored password. The phone match
// uses the last ten digits only, tolerating country-code formatting drift.
func (n *Notifier) PasswordReset(ctx context.Context, nationalID, phoneNumber string) error {
	if nationalID == "" || phoneNumber == "" {
		return ErrMissingCredentials
	}
	if len(nationalID) != 11 {
		return ErrInvalidNationalID
	}

	account, err := n.directory.LookupByNationalID(ctx, nationalID)
	if err != nil {
		return err
	}

	given := phone.Last10(phone.Normalize(phoneNumber))
	stored := phone.Last10(phone.Normalize(account.PhoneNumber))
	if given == "" || given != stored {
		// Indistinguishable from an unknown national id on purpose.
		return directory.ErrNotFound
	}

	body := fmt.Sprintf(
		"KARGO TAKIP SISTEMI\n\nSayin %s %s,\n\nSifreniz: %s\n\nLutfen sifrenizi kimseyle paylasmayiniz.",
		account.FirstName, account.LastName, account.Password,
	)

	_, err = n.queue.Enqueue(ctx, given, body, model.TypePasswordReset, account.BranchCode)
	return err
}

// BulkNotify queues the same message for every recipient, all-or-nothing.
func (n *Notifier) BulkNotify(ctx context.Context, phoneNumbers []string, body string, branchCode *string) ([]int64, error) {
	return n.queue.EnqueueBatch(ctx, phoneNumbers, body, model.TypeNotification, branchCode)
}

// SendCode issues a verification code and tries to deliver it by SMS. When
// no transport is configured, or the transport call fails, the code is
// returned to the caller instead (devMode=true). That bypass is for
// environments without provider credentials; it defeats out-of-band
// verification and must not be exposed in production.
func (n *Notifier) SendCode(ctx context.Context, phoneNumber string) (code string, devMode bool, err error) {
	if !phone.IsMobile(phoneNumber) {
		return "", false, ErrInvalidPhone
	}

	code, err = n.codes.Issue(ctx, phoneNumber)
	if err != nil {
		return "", false, err
	}

	if !n.transportConfigured {
		return code, true, nil
	}

	body := "Kargo dogrulama kodunuz: " + code
	if sendErr := n.sms.Send(ctx, phone.ToE164(phoneNumber), body); sendErr != nil {
		slog.Warn("sms transport failed, falling back to dev mode",
			"error", sendErr)
		return code, true, nil
	}
	return "", false, nil
}

// VerifyCode consumes the active code for the number.
func (n *Notifier) VerifyCode(ctx context.Context, phoneNumber, code string) error {
	return n.codes.Verify(ctx, phoneNumber, code)
}
