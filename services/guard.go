package services

import (
	"context"

	"chat-relay/repositories"
)

type IGuard interface {
	IsParticipant(ctx context.Context, identity, chatID string) (bool, error)
}

// Guard answers the single membership question both enforcement points rely
// on: the message pipeline before persisting (who may write) and the
// subscription gateway before binding a topic (who may read). One
// implementation, so the two can never drift apart.
type Guard struct {
	chats repositories.IChatRepository
}

func NewGuard(chats repositories.IChatRepository) *Guard {
	return &Guard{chats: chats}
}

// IsParticipant reports whether identity belongs to the chat's participant
// set. A missing chat is ErrNotFound, not "false".
func (g *Guard) IsParticipant(_ context.Context, identity, chatID string) (bool, error) {
	chat, err := g.chats.GetByID(chatID)
	if err != nil {
		return false, err
	}
	return chat.HasParticipant(identity), nil
}
