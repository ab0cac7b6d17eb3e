package model

import "time"

// VerificationCode is the single active code for a phone number. A new issue
// for the same number replaces the row (last-issued-wins), which is what
// invalidates superseded codes.
type VerificationCode struct {
	PhoneNumber string
	Code        string
	Used        bool
	CreatedAt   time.Time
}
