// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model
// and the owner moderation views.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported in this package as ErrNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
)

// CreateUser inserts a new user row. Unique violations on login or phone are
// propagated as the raw driver error for the service layer to classify.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	u.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(u).Error
}

// GetUserByID fetches a user by primary key, or ErrNotFound.
func GetUserByID(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByLoginOrPhone resolves the sign-in identifier: the same input is
// matched against both the login and the phone column.
func GetUserByLoginOrPhone(ctx context.Context, db *gorm.DB, input string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("login = ? OR phone = ?", input, input).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByLoginAndRole fetches a user by login constrained to a role.
// Used by the admin and owner sign-in paths.
func GetUserByLoginAndRole(ctx context.Context, db *gorm.DB, login, role string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("login = ? AND role = ?", login, role).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserPassword replaces the stored password hash.
func UpdateUserPassword(ctx context.Context, db *gorm.DB, id uint, hash string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UserExists reports whether a user row with the given id is present.
func UserExists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Count(&n).Error
	return n > 0, err
}

// UserWithBlock is the owner moderation view of an account: the user row
// joined with its block record, when one exists.
type UserWithBlock struct {
	ID          uint       `json:"id"`
	Login       string     `json:"login"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	IsBlocked   bool       `json:"is_blocked"`
	BlockReason *string    `json:"block_reason,omitempty"`
	BlockedAt   *time.Time `json:"blocked_at,omitempty"`
}

// ListUsersWithBlockInfo returns every non-owner account annotated with its
// block state, newest first.
func ListUsersWithBlockInfo(ctx context.Context, db *gorm.DB) ([]UserWithBlock, error) {
	var out []UserWithBlock
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select(`users.id, users.login, users.phone, users.role, users.created_at,
			blocked_users.id IS NOT NULL AS is_blocked,
			blocked_users.reason AS block_reason,
			blocked_users.blocked_at AS blocked_at`).
		Joins("LEFT JOIN blocked_users ON blocked_users.user_id = users.id").
		Where("users.role <> ?", domain.RoleOwner).
		Order("users.created_at DESC").
		Scan(&out).Error
	return out, err
}
