package services

import (
	"context"

	"chat-relay/domain"
	"chat-relay/repositories"

	"github.com/samber/lo"
)

type IUserService interface {
	Search(ctx context.Context, query string) ([]domain.User, error)
	Get(ctx context.Context, id string) (domain.User, error)
}

type UserService struct {
	users       repositories.IUserRepository
	searchLimit int
}

func NewUserService(users repositories.IUserRepository, searchLimit int) *UserService {
	return &UserService{users: users, searchLimit: searchLimit}
}

// Search matches usernames and emails; an empty query lists accounts.
func (s *UserService) Search(ctx context.Context, query string) ([]domain.User, error) {
	users, err := s.users.Search(ctx, query, s.searchLimit)
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u repositories.User, _ int) domain.User {
		return u.Public()
	}), nil
}

func (s *UserService) Get(_ context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		return domain.User{}, err
	}
	return user.Public(), nil
}
