package dummymail

import (
	"sync"

	"github.com/kazadi/darasa/core"
)

// Service records messages instead of sending them; used by tests.
type Service struct {
	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*Service)(nil)

func NewService() *Service {
	return &Service{}
}

func (svc *Service) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, msg := range messages {
		svc.sent = append(svc.sent, *msg)
	}
}

func (svc *Service) Sent() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]core.EmailMessage, len(svc.sent))
	copy(out, svc.sent)
	return out
}
