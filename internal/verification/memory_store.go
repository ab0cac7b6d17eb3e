package verification

import (
	"context"
	"sync"
	"time"

	"github.com/wasycim/cargo-notify/internal/model"
	"github.com/wasycim/cargo-notify/internal/phone"
)

// MemoryStore keeps codes in a map keyed by normalized phone number. The
// mark-used step happens under the same lock as the lookup, which gives the
// conditional-write semantics Verify requires.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]*model.VerificationCode
	ttl   time.Duration

	now func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		codes: make(map[string]*model.VerificationCode),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) Issue(ctx context.Context, phoneNumber string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	key := phone.Normalize(phoneNumber)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[key] = &model.VerificationCode{
		PhoneNumber: key,
		Code:        code,
		Used:        false,
		CreatedAt:   s.now().UTC(),
	}
	return code, nil
}

func (s *MemoryStore) Verify(ctx context.Context, phoneNumber, code string) error {
	key := phone.Normalize(phoneNumber)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.codes[key]
	if !ok || rec.Used || rec.Code != code {
		return ErrCodeMismatch
	}

	// Expired codes stay in the map; they already fail here forever.
	if s.now().UTC().Sub(rec.CreatedAt) > s.ttl {
		return ErrCodeExpired
	}

	rec.Used = true
	return nil
}
