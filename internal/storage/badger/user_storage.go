package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
	"github.com/ternarybob/ipsa/internal/timewindow"
)

// UserStorage implements interfaces.UserStorage for Badger
type UserStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	// serialises read-modify-write so concurrent edits never hit badger.ErrConflict
	writeMu sync.Mutex
}

var _ interfaces.UserStorage = (*UserStorage)(nil)

// NewUserStorage creates a new UserStorage instance
func NewUserStorage(db *BadgerDB, logger arbor.ILogger) *UserStorage {
	return &UserStorage{
		db:     db,
		logger: logger,
	}
}

// SaveUser inserts or replaces a user record, keeping the original registration time
func (s *UserStorage) SaveUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := time.Now().UTC()
	return s.db.Store().Badger().Update(func(tx *badger.Txn) error {
		var existing models.User
		err := s.db.Store().TxGet(tx, user.ID, &existing)
		switch {
		case err == nil && !existing.RegisteredAt.IsZero():
			user.RegisteredAt = existing.RegisteredAt
		case errors.Is(err, badgerhold.ErrNotFound):
			if user.RegisteredAt.IsZero() {
				user.RegisteredAt = now
			}
		case err != nil:
			return fmt.Errorf("failed to read user %s: %w", user.ID, err)
		}
		user.UpdatedAt = now

		if err := s.db.Store().TxUpsert(tx, user.ID, user); err != nil {
			return fmt.Errorf("failed to save user %s: %w", user.ID, err)
		}
		return nil
	})
}

// GetUser returns the user or ErrUserNotFound
func (s *UserStorage) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	var user models.User
	err := s.db.Store().Get(id, &user)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &user, nil
}

// DeleteUser removes the user record; deleting an unknown user is not an error
func (s *UserStorage) DeleteUser(ctx context.Context, id models.UserID) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.db.Store().Delete(id, models.User{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	s.logger.Debug().Str("user", id.String()).Msg("User deleted")
	return nil
}

// ListActive returns users flagged active, ordered by id
func (s *UserStorage) ListActive(ctx context.Context) ([]*models.User, error) {
	var users []models.User
	if err := s.db.Store().Find(&users, badgerhold.Where("Active").Eq(true)); err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	result := make([]*models.User, len(users))
	for i := range users {
		result[i] = &users[i]
	}
	return result, nil
}

// SetActive records whether the user should be monitored after a restart
func (s *UserStorage) SetActive(ctx context.Context, id models.UserID, active bool) error {
	return s.update(id, func(user *models.User) error {
		user.Active = active
		return nil
	})
}

// AddAsset adds a position or increases its quantity
func (s *UserStorage) AddAsset(ctx context.Context, id models.UserID, asset models.Asset) error {
	asset.Symbol = normalizeSymbol(asset.Symbol)
	if asset.Symbol == "" || asset.Quantity <= 0 {
		return fmt.Errorf("%w: asset %q quantity %d", interfaces.ErrDataFormat, asset.Symbol, asset.Quantity)
	}

	return s.update(id, func(user *models.User) error {
		for i := range user.Assets {
			if user.Assets[i].Symbol == asset.Symbol {
				user.Assets[i].Quantity += asset.Quantity
				return nil
			}
		}
		user.Assets = append(user.Assets, asset)
		return nil
	})
}

// ReduceAsset decreases a position, removing it once the quantity drops to zero or below.
// Reducing a symbol that is not held is a no-op.
func (s *UserStorage) ReduceAsset(ctx context.Context, id models.UserID, asset models.Asset) error {
	asset.Symbol = normalizeSymbol(asset.Symbol)
	if asset.Symbol == "" || asset.Quantity <= 0 {
		return fmt.Errorf("%w: asset %q quantity %d", interfaces.ErrDataFormat, asset.Symbol, asset.Quantity)
	}

	return s.update(id, func(user *models.User) error {
		for i := range user.Assets {
			if user.Assets[i].Symbol != asset.Symbol {
				continue
			}
			user.Assets[i].Quantity -= asset.Quantity
			if user.Assets[i].Quantity <= 0 {
				user.Assets = append(user.Assets[:i], user.Assets[i+1:]...)
			}
			return nil
		}
		return nil
	})
}

// RemoveAsset drops a position regardless of quantity
func (s *UserStorage) RemoveAsset(ctx context.Context, id models.UserID, symbol string) error {
	symbol = normalizeSymbol(symbol)
	return s.update(id, func(user *models.User) error {
		kept := user.Assets[:0]
		for _, a := range user.Assets {
			if a.Symbol != symbol {
				kept = append(kept, a)
			}
		}
		user.Assets = kept
		return nil
	})
}

// SetTimezone stores an IANA timezone name; unknown names are rejected
func (s *UserStorage) SetTimezone(ctx context.Context, id models.UserID, timezone string) error {
	loc, err := timewindow.LoadLocation(timezone)
	if err != nil {
		return err
	}
	return s.update(id, func(user *models.User) error {
		user.Timezone = loc.String()
		return nil
	})
}

// SetNewsWindow stores a period string such as "3 hours"; unparsable periods are rejected
func (s *UserStorage) SetNewsWindow(ctx context.Context, id models.UserID, window string) error {
	period, err := timewindow.ParsePeriod(window)
	if err != nil {
		return err
	}
	return s.update(id, func(user *models.User) error {
		user.NewsWindow = period.String()
		return nil
	})
}

// GetSymbols implements interfaces.PortfolioProvider
func (s *UserStorage) GetSymbols(ctx context.Context, id models.UserID) ([]string, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Symbols(), nil
}

// GetTimezone implements interfaces.UserSettingsProvider
func (s *UserStorage) GetTimezone(ctx context.Context, id models.UserID) (string, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Timezone, nil
}

// GetNewsWindow implements interfaces.UserSettingsProvider
func (s *UserStorage) GetNewsWindow(ctx context.Context, id models.UserID) (string, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	return user.NewsWindow, nil
}

// Close closes the underlying database
func (s *UserStorage) Close() error {
	return s.db.Close()
}

func (s *UserStorage) update(id models.UserID, mutate func(*models.User) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.db.Store().Badger().Update(func(tx *badger.Txn) error {
		var user models.User
		err := s.db.Store().TxGet(tx, id, &user)
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("%w: %s", interfaces.ErrUserNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to read user %s: %w", id, err)
		}

		if err := mutate(&user); err != nil {
			return err
		}
		user.UpdatedAt = time.Now().UTC()

		if err := s.db.Store().TxUpsert(tx, id, &user); err != nil {
			return fmt.Errorf("failed to update user %s: %w", id, err)
		}
		return nil
	})
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
