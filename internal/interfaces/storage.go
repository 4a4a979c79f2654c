package interfaces

import (
	"context"

	"github.com/ternarybob/ipsa/internal/models"
)

// UserStorage - interface for user record persistence.
// Lookups of unknown users return ErrUserNotFound.
type UserStorage interface {
	PortfolioProvider
	UserSettingsProvider

	// User operations
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)
	DeleteUser(ctx context.Context, id models.UserID) error
	ListActive(ctx context.Context) ([]*models.User, error)
	SetActive(ctx context.Context, id models.UserID, active bool) error

	// Portfolio operations
	AddAsset(ctx context.Context, id models.UserID, asset models.Asset) error
	ReduceAsset(ctx context.Context, id models.UserID, asset models.Asset) error
	RemoveAsset(ctx context.Context, id models.UserID, symbol string) error

	// Settings operations
	SetTimezone(ctx context.Context, id models.UserID, timezone string) error
	SetNewsWindow(ctx context.Context, id models.UserID, window string) error

	Close() error
}
