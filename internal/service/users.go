package service

import (
	"context"
	"errors"

	"github.com/Skotchmaster/smartcart/internal/models"
	"github.com/Skotchmaster/smartcart/internal/repo"
	"github.com/Skotchmaster/smartcart/internal/shared"
	"github.com/Skotchmaster/smartcart/internal/util"
)

func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return user, nil
}

func (s *AuthService) ListAllUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.Store.ListAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return users, nil
}

// ListUsers returns one page of users plus the total count.
func (s *AuthService) ListUsers(ctx context.Context, page, size int) ([]models.User, int64, error) {
	offset, limit := util.Calculate(page, size)
	users, total, err := s.Store.ListPage(ctx, offset, limit)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	return users, total, nil
}
