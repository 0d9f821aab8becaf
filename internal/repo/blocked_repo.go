// Repository functions for the BlockedUser side table. A row's presence
// marks the account as blocked; at most one row exists per user id.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
)

// CreateBlock inserts the block record for a user. The unique index on
// user_id rejects a second active block.
func CreateBlock(ctx context.Context, db *gorm.DB, b *domain.BlockedUser) error {
	return db.WithContext(ctx).Create(b).Error
}

// GetBlock returns the active block for a user id, or ErrNotFound.
func GetBlock(ctx context.Context, db *gorm.DB, userID uint) (*domain.BlockedUser, error) {
	var b domain.BlockedUser
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBlockByLoginOrPhone matches the sign-in identifier against the
// denormalized login/phone columns of the block table. Used to refuse
// sign-in for blocked accounts.
func GetBlockByLoginOrPhone(ctx context.Context, db *gorm.DB, input string) (*domain.BlockedUser, error) {
	var b domain.BlockedUser
	err := db.WithContext(ctx).
		Where("login = ? OR phone = ?", input, input).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// IsBlocked reports whether a block row exists for the user id.
func IsBlocked(ctx context.Context, db *gorm.DB, userID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.BlockedUser{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n > 0, err
}

// DeleteBlock removes the block row for a user id. Deleting a non-existent
// block is not an error; the affected row count is returned.
func DeleteBlock(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	res := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.BlockedUser{})
	return res.RowsAffected, res.Error
}
