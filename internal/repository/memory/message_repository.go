package memory

import (
	"context"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

type messageRepository struct {
	s  *Store
	tx *unitOfWork
}

func (r *messageRepository) Create(_ context.Context, message *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&message.Id, &message.CreatedAt)
	r.s.t.messages = append(r.s.t.messages, *message)
	r.tx.wrote(tableMessages, message.Id)
	return nil
}

func (r *messageRepository) FindHistory(_ context.Context, sessionId, userId uuid.UUID) ([]*entity.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Message
	for _, m := range r.s.t.messages {
		if m.SessionId == sessionId && m.UserId == userId {
			msg := m
			out = append(out, &msg)
		}
	}
	return out, nil
}
