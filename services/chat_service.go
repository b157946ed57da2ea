package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"

	"github.com/samber/lo"
)

type IChatService interface {
	CreateDirect(ctx context.Context, identity, otherID string) (domain.ChatView, error)
	CreateGroup(ctx context.Context, identity, name string, participantIDs []string) (domain.ChatView, error)
	List(ctx context.Context, identity string) ([]domain.ChatView, error)
	Get(ctx context.Context, identity, chatID string) (domain.ChatView, error)
}

type ChatService struct {
	chats    repositories.IChatRepository
	users    repositories.IUserRepository
	messages repositories.IMessageRepository
	log      *slog.Logger
}

func NewChatService(chats repositories.IChatRepository, users repositories.IUserRepository,
	messages repositories.IMessageRepository, log *slog.Logger) *ChatService {
	return &ChatService{chats: chats, users: users, messages: messages, log: log}
}

// CreateDirect opens a two-party chat. An existing direct chat between the
// same two users is returned instead of being duplicated.
func (s *ChatService) CreateDirect(ctx context.Context, identity, otherID string) (domain.ChatView, error) {
	if _, err := s.users.GetByID(otherID); err != nil {
		return domain.ChatView{}, fmt.Errorf("participant: %w", err)
	}

	chat, err := domain.NewDirectChat(identity, otherID, time.Now().UTC())
	if err != nil {
		return domain.ChatView{}, err
	}

	if existing, ok, err := s.chats.FindDirect(identity, otherID); err != nil {
		return domain.ChatView{}, err
	} else if ok {
		return s.view(ctx, existing)
	}

	if err := s.chats.Create(chat); err != nil {
		return domain.ChatView{}, err
	}
	return s.view(ctx, chat)
}

// CreateGroup opens a group chat. The creator always counts as a
// participant; everyone referenced must exist.
func (s *ChatService) CreateGroup(ctx context.Context, identity, name string, participantIDs []string) (domain.ChatView, error) {
	chat, err := domain.NewGroupChat(identity, name, participantIDs, time.Now().UTC())
	if err != nil {
		return domain.ChatView{}, err
	}

	if _, err := s.users.GetByIDs(chat.ParticipantIDs); err != nil {
		return domain.ChatView{}, fmt.Errorf("participants: %w", err)
	}

	if err := s.chats.Create(chat); err != nil {
		return domain.ChatView{}, err
	}
	return s.view(ctx, chat)
}

// List returns the identity's chats, most recent activity first, each
// projected with participants and last message.
func (s *ChatService) List(ctx context.Context, identity string) ([]domain.ChatView, error) {
	chats, err := s.chats.GetByParticipant(identity)
	if err != nil {
		return nil, err
	}

	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})

	views := make([]domain.ChatView, 0, len(chats))
	for _, chat := range chats {
		view, err := s.view(ctx, chat)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// Get returns a single chat projection, participants only.
func (s *ChatService) Get(ctx context.Context, identity, chatID string) (domain.ChatView, error) {
	chat, err := s.chats.GetByID(chatID)
	if err != nil {
		return domain.ChatView{}, err
	}
	if !chat.HasParticipant(identity) {
		return domain.ChatView{}, errors.ErrForbidden
	}
	return s.view(ctx, chat)
}

// view projects a chat with resolved participants and its latest message.
func (s *ChatService) view(_ context.Context, chat domain.Chat) (domain.ChatView, error) {
	participants, err := s.users.GetByIDs(chat.ParticipantIDs)
	if err != nil {
		return domain.ChatView{}, err
	}

	last, err := s.messages.Last(chat.ID)
	if err != nil {
		return domain.ChatView{}, err
	}

	return domain.ChatView{
		ID:   chat.ID,
		Name: chat.Name,
		Type: chat.Type,
		Participants: lo.Map(participants, func(u repositories.User, _ int) domain.User {
			return u.Public()
		}),
		CreatedBy:   chat.CreatedBy,
		CreatedAt:   chat.CreatedAt,
		UpdatedAt:   chat.UpdatedAt,
		LastMessage: last,
	}, nil
}
