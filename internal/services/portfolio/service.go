package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
)

// Service applies textual portfolio edits to stored users
type Service struct {
	store  interfaces.UserStorage
	logger arbor.ILogger
}

// NewService creates a portfolio service over the user store
func NewService(store interfaces.UserStorage, logger arbor.ILogger) *Service {
	return &Service{store: store, logger: logger}
}

// Register returns the stored user, creating it when absent
func (s *Service) Register(ctx context.Context, id models.UserID, username string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, interfaces.ErrUserNotFound) {
		return nil, err
	}

	user = &models.User{ID: id, Username: username}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user %s: %w", id, err)
	}

	s.logger.Info().Str("user", id.String()).Str("username", username).Msg("User registered")
	return user, nil
}

// AddAssets parses input and adds every asset to the user's portfolio.
// Nothing is stored when the input does not parse.
func (s *Service) AddAssets(ctx context.Context, id models.UserID, input string) ([]models.Asset, error) {
	assets, err := ParseAssets(input)
	if err != nil {
		return nil, err
	}
	for _, a := range assets {
		if err := s.store.AddAsset(ctx, id, a); err != nil {
			return nil, err
		}
	}
	s.logger.Debug().Str("user", id.String()).Int("assets", len(assets)).Msg("Assets added")
	return s.assets(ctx, id)
}

// ReduceAssets parses input and reduces the matching positions
func (s *Service) ReduceAssets(ctx context.Context, id models.UserID, input string) ([]models.Asset, error) {
	assets, err := ParseAssets(input)
	if err != nil {
		return nil, err
	}
	for _, a := range assets {
		if err := s.store.ReduceAsset(ctx, id, a); err != nil {
			return nil, err
		}
	}
	s.logger.Debug().Str("user", id.String()).Int("assets", len(assets)).Msg("Assets reduced")
	return s.assets(ctx, id)
}

// Describe renders the user's portfolio for display
func (s *Service) Describe(ctx context.Context, id models.UserID) (string, error) {
	assets, err := s.assets(ctx, id)
	if err != nil {
		return "", err
	}
	return FormatAssets(assets), nil
}

func (s *Service) assets(ctx context.Context, id models.UserID) ([]models.Asset, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Assets, nil
}
