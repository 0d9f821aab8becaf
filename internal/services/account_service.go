// Package services – AccountService
//
// This file implements AccountService: registration, sign-in for each of the
// three roles, and the owner moderation actions (block, unblock, delete).
// Passwords are bcrypt-hashed; sign-in accepts either the login or the phone
// as identifier and refuses blocked accounts up front.
//
// Moderation couples to the realtime hub: blocking or deleting an account
// force-logs the user out immediately, and unblocking within the grace
// window retracts the pending teardown. Deletion cascades over orders,
// tracking, notifications, and any block record in a single transaction, so
// a failure mid-cascade leaves everything in place.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
	"github.com/sino99/cafe-safar-ver1/internal/realtime"
	"github.com/sino99/cafe-safar-ver1/internal/repo"
)

// ForcedLogouts is the session-kill contract consumed by moderation actions.
// *realtime.Hub satisfies it.
type ForcedLogouts interface {
	ForceLogout(userID uint, reason string) bool
	CancelForcedLogout(userID uint)
}

// AccountService owns account lifecycle and owner moderation.
type AccountService struct {
	DB  *gorm.DB
	Hub ForcedLogouts
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *gorm.DB, hub ForcedLogouts) *AccountService {
	return &AccountService{DB: db, Hub: hub}
}

// Register creates a user account and returns it. The confirmation must
// match the password; unique violations on login or phone surface as
// ErrLoginTaken.
func (s *AccountService) Register(ctx context.Context, login, phone, password, confirm string) (*domain.User, error) {
	login = strings.TrimSpace(login)
	phone = strings.TrimSpace(phone)
	if login == "" || phone == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Login: login, Phone: phone, Password: string(hash), Role: domain.RoleUser}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrLoginTaken
		}
		return nil, err
	}
	return u, nil
}

// Login authenticates a customer by login or phone. Blocked accounts are
// refused before the password check.
func (s *AccountService) Login(ctx context.Context, input, password string) (*domain.User, error) {
	input = strings.TrimSpace(input)
	if input == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if _, err := repo.GetBlockByLoginOrPhone(ctx, s.DB, input); err == nil {
		return nil, ErrAccountBlocked
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	u, err := repo.GetUserByLoginOrPhone(ctx, s.DB, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// LoginWithRole authenticates the admin and owner panels: the login must
// carry the exact role.
func (s *AccountService) LoginWithRole(ctx context.Context, login, password, role string) (*domain.User, error) {
	u, err := repo.GetUserByLoginAndRole(ctx, s.DB, strings.TrimSpace(login), role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword verifies the current password and stores a new bcrypt hash.
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if next == "" {
		return ErrInvalidCredentials
	}
	u, err := repo.GetUserByID(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return repo.UpdateUserPassword(ctx, s.DB, userID, string(hash))
}

// ListUsers returns every non-owner account with its block state, for the
// owner panel.
func (s *AccountService) ListUsers(ctx context.Context) ([]repo.UserWithBlock, error) {
	return repo.ListUsersWithBlockInfo(ctx, s.DB)
}

// Block records an active block for the user and force-logs them out. A
// second block of the same user returns ErrAlreadyBlocked.
func (s *AccountService) Block(ctx context.Context, userID uint, reason string) (bool, error) {
	u, err := repo.GetUserByID(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	blocked, err := repo.IsBlocked(ctx, s.DB, userID)
	if err != nil {
		return false, err
	}
	if blocked {
		return false, ErrAlreadyBlocked
	}

	if strings.TrimSpace(reason) == "" {
		reason = "Блокировка администратором"
	}
	err = repo.CreateBlock(ctx, s.DB, &domain.BlockedUser{
		UserID: userID,
		Login:  u.Login,
		Phone:  u.Phone,
		Reason: reason,
	})
	if err != nil {
		return false, err
	}
	return s.Hub.ForceLogout(userID, realtime.ReasonAccountBlocked), nil
}

// Unblock removes the user's block record and retracts any pending forced
// logout so a live channel survives the grace window.
func (s *AccountService) Unblock(ctx context.Context, userID uint) (int64, error) {
	n, err := repo.DeleteBlock(ctx, s.DB, userID)
	if err != nil {
		return 0, err
	}
	s.Hub.CancelForcedLogout(userID)
	return n, nil
}

// Delete force-logs the user out and removes the account with everything it
// owns (notifications, tracking history, orders, block record, and the user
// row) in one transaction, all-or-nothing.
func (s *AccountService) Delete(ctx context.Context, userID uint) (bool, error) {
	exists, err := repo.UserExists(ctx, s.DB, userID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrUserNotFound
	}

	forced := s.Hub.ForceLogout(userID, realtime.ReasonAccountDeleted)

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&domain.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&domain.OrderTracking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&domain.Order{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&domain.BlockedUser{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.User{}, userID).Error
	})
	if err != nil {
		return forced, err
	}
	return forced, nil
}

// UserStats returns one customer's lifetime order summary together with
// their unread notification count.
func (s *AccountService) UserStats(ctx context.Context, userID uint) (*repo.UserStats, int64, error) {
	stats, err := repo.UserOrderStats(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	unread, err := repo.UserUnreadCount(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	return stats, unread, nil
}
