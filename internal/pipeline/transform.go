package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/windrose-service/internal/domain"
)

// UpdateHandler answers a parsed chat update.
type UpdateHandler interface {
	Handle(ctx context.Context, upd domain.Update) []domain.Reply
}

// UpdateTransformer implements Transformer by decoding the update, passing it
// to the bot handler and serializing each reply.
type UpdateTransformer struct {
	handler UpdateHandler
}

// NewTransformer creates an UpdateTransformer.
func NewTransformer(handler UpdateHandler) *UpdateTransformer {
	return &UpdateTransformer{handler: handler}
}

func (t *UpdateTransformer) Transform(ctx context.Context, raw domain.RawEvent) ([]domain.OutputEvent, error) {
	upd, err := domain.ParseUpdate(raw)
	if err != nil {
		return nil, err
	}

	replies := t.handler.Handle(ctx, upd)
	out := make([]domain.OutputEvent, 0, len(replies))
	for _, r := range replies {
		ev, err := domain.SerializeReply(r)
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", upd.ID, err)
		}
		out = append(out, ev)
	}
	return out, nil
}
