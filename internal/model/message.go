package model

import "time"

type Status string

const (
	Pending Status = "pending"
	Sent    Status = "sent"
	Failed  Status = "failed"
)

// MessageType tags what a queued message carries. The set is extensible;
// consumers must tolerate unknown tags.
type MessageType string

const (
	TypePasswordReset MessageType = "password_reset"
	TypeNotification  MessageType = "notification"
	TypeOTP           MessageType = "otp"
)

// Message is one outbound notification. Producers insert it in Pending and
// never touch it again; the delivery worker is the only writer of Status.
type Message struct {
	ID          int64
	PhoneNumber string
	Body        string
	Type        MessageType
	Status      Status
	BranchCode  *string
	LastError   *string
	SentAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
