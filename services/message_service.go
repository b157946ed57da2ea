package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/bus"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type SendMessage struct {
	ChatID   string `json:"chatId"`
	Content  string `json:"content,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type IMessageService interface {
	Send(ctx context.Context, identity string, cmd SendMessage) (domain.MessageEvent, error)
	History(ctx context.Context, identity, chatID string, limit, offset int) ([]domain.Message, error)
}

// MessageService is the send pipeline: validate, authorize, moderate,
// persist, enrich, publish. The badger insert is the durability boundary;
// everything after it is best-effort.
type MessageService struct {
	guard     IGuard
	chats     repositories.IChatRepository
	users     repositories.IUserRepository
	messages  repositories.IMessageRepository
	moderator *moderation.Moderator
	events    *bus.Bus[domain.MessageEvent]
	metrics   *observability.Metrics
	log       *slog.Logger
}

func NewMessageService(
	guard IGuard,
	chats repositories.IChatRepository,
	users repositories.IUserRepository,
	messages repositories.IMessageRepository,
	moderator *moderation.Moderator,
	events *bus.Bus[domain.MessageEvent],
	metrics *observability.Metrics,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		guard:     guard,
		chats:     chats,
		users:     users,
		messages:  messages,
		moderator: moderator,
		events:    events,
		metrics:   metrics,
		log:       log,
	}
}

// Send runs the full pipeline for one incoming message and returns the
// enriched event handed to subscribers.
func (s *MessageService) Send(ctx context.Context, identity string, cmd SendMessage) (domain.MessageEvent, error) {
	// 1. A message carries text, an image, or both. Never neither.
	if cmd.Content == "" && cmd.ImageURL == "" {
		return domain.MessageEvent{}, fmt.Errorf("%w: message must have content or image", errors.ErrValidation)
	}

	// 2. The chat must exist before any authorization verdict.
	chat, err := s.chats.GetByID(cmd.ChatID)
	if err != nil {
		return domain.MessageEvent{}, err
	}

	// 3. Same membership check the gateway applies on subscribe.
	ok, err := s.guard.IsParticipant(ctx, identity, cmd.ChatID)
	if err != nil {
		return domain.MessageEvent{}, err
	}
	if !ok {
		return domain.MessageEvent{}, fmt.Errorf("%w: not a participant of this chat", errors.ErrForbidden)
	}

	// 4. Moderate and tag the text before it becomes durable.
	content := cmd.Content
	lang := ""
	if content != "" {
		if s.moderator != nil {
			censored, matched := s.moderator.Censor(content)
			if len(matched) > 0 {
				s.log.Warn("message content censored",
					"chat", cmd.ChatID, "sender", identity, "words", len(matched))
			}
			content = censored
		}
		lang = whatlanggo.Detect(cmd.Content).Lang.Iso6391()
	}

	message := domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chat.ID,
		SenderID:  identity,
		Content:   content,
		ImageURL:  cmd.ImageURL,
		Lang:      lang,
		CreatedAt: time.Now().UTC(),
	}

	// 5. Durability boundary. From here on the message exists whatever
	// happens downstream.
	if err := s.messages.Insert(message); err != nil {
		return domain.MessageEvent{}, err
	}
	s.metrics.IncrMessagesPersisted()

	// 6. Last-activity bump is a side effect, not a delivery requirement.
	if err := s.chats.Touch(chat.ID, message.CreatedAt); err != nil {
		s.log.Warn("chat activity bump failed", "chat", chat.ID, "err", err)
	}

	// 7. Enrich with sender and chat projections so subscribers render
	// without follow-up queries.
	event, err := s.enrich(message, chat)
	if err != nil {
		// The message is already durable; callers can still query it.
		return domain.MessageEvent{}, err
	}

	// 8. Best-effort fan-out. Zero subscribers is not a failure.
	s.events.Publish(domain.ChatTopic(chat.ID), event)
	s.metrics.IncrEventsPublished()

	return event, nil
}

// History returns one chronological page of a chat's messages, bounded by
// the same membership rule as delivery.
func (s *MessageService) History(ctx context.Context, identity, chatID string, limit, offset int) ([]domain.Message, error) {
	ok, err := s.guard.IsParticipant(ctx, identity, chatID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a participant of this chat", errors.ErrForbidden)
	}
	return s.messages.FindByChatOrdered(chatID, limit, offset)
}

func (s *MessageService) enrich(message domain.Message, chat domain.Chat) (domain.MessageEvent, error) {
	sender, err := s.users.GetByID(message.SenderID)
	if err != nil {
		return domain.MessageEvent{}, err
	}
	participants, err := s.users.GetByIDs(chat.ParticipantIDs)
	if err != nil {
		return domain.MessageEvent{}, err
	}

	return domain.MessageEvent{
		Message: message,
		Sender:  sender.Public(),
		Chat: domain.ChatView{
			ID:   chat.ID,
			Name: chat.Name,
			Type: chat.Type,
			Participants: lo.Map(participants, func(u repositories.User, _ int) domain.User {
				return u.Public()
			}),
			CreatedBy: chat.CreatedBy,
			CreatedAt: chat.CreatedAt,
			UpdatedAt: message.CreatedAt,
		},
	}, nil
}
