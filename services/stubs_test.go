package services

import (
	"context"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"

	"github.com/google/uuid"
)

// Hand-written stubs shared by the service tests.

var (
	_ repositories.IUserRepository = (*stubUserRepo)(nil)
	_ repositories.IChatRepository = (*stubChatRepo)(nil)
)

type stubUserRepo struct {
	users     map[string]repositories.User
	createErr error
}

func newStubUserRepo(users ...repositories.User) *stubUserRepo {
	s := &stubUserRepo{users: make(map[string]repositories.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func testUser(id, username string) repositories.User {
	return repositories.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
	}
}

func (s *stubUserRepo) Create(username, email, passwordHash string) (repositories.User, error) {
	if s.createErr != nil {
		return repositories.User{}, s.createErr
	}
	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return repositories.User{}, errors.ErrUserAlreadyExists
		}
	}
	user := repositories.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *stubUserRepo) GetByID(id string) (repositories.User, error) {
	user, ok := s.users[id]
	if !ok {
		return repositories.User{}, errors.ErrNotFound
	}
	return user, nil
}

func (s *stubUserRepo) GetByIDs(ids []string) ([]repositories.User, error) {
	users := make([]repositories.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.GetByID(id)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *stubUserRepo) GetByEmail(email string) (repositories.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repositories.User{}, errors.ErrNotFound
}

func (s *stubUserRepo) Search(_ context.Context, query string, _ int) ([]repositories.User, error) {
	var out []repositories.User
	for _, u := range s.users {
		if query == "" || u.Username == query {
			out = append(out, u)
		}
	}
	return out, nil
}

type stubChatRepo struct {
	chats    map[string]domain.Chat
	touchErr error
	touched  map[string]time.Time
}

func newStubChatRepo(chats ...domain.Chat) *stubChatRepo {
	s := &stubChatRepo{chats: make(map[string]domain.Chat), touched: make(map[string]time.Time)}
	for _, c := range chats {
		s.chats[c.ID] = c
	}
	return s
}

func (s *stubChatRepo) Create(chat domain.Chat) error {
	s.chats[chat.ID] = chat
	return nil
}

func (s *stubChatRepo) GetByID(id string) (domain.Chat, error) {
	chat, ok := s.chats[id]
	if !ok {
		return domain.Chat{}, errors.ErrNotFound
	}
	return chat, nil
}

func (s *stubChatRepo) GetByParticipant(userID string) ([]domain.Chat, error) {
	var out []domain.Chat
	for _, c := range s.chats {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubChatRepo) FindDirect(userA, userB string) (domain.Chat, bool, error) {
	for _, c := range s.chats {
		if c.Type == domain.ChatDirect && c.HasParticipant(userA) && c.HasParticipant(userB) {
			return c, true, nil
		}
	}
	return domain.Chat{}, false, nil
}

func (s *stubChatRepo) Touch(id string, at time.Time) error {
	if s.touchErr != nil {
		return s.touchErr
	}
	chat, ok := s.chats[id]
	if !ok {
		return errors.ErrNotFound
	}
	chat.UpdatedAt = at
	s.chats[id] = chat
	s.touched[id] = at
	return nil
}

type stubMessageRepo struct {
	inserted  []domain.Message
	insertErr error
}

func (s *stubMessageRepo) Insert(message domain.Message) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, message)
	return nil
}

func (s *stubMessageRepo) FindByChatOrdered(chatID string, limit, offset int) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range s.inserted {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMessageRepo) Last(chatID string) (*domain.Message, error) {
	for i := len(s.inserted) - 1; i >= 0; i-- {
		if s.inserted[i].ChatID == chatID {
			m := s.inserted[i]
			return &m, nil
		}
	}
	return nil, nil
}
