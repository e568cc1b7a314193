// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Subscription model (the user → channel set).
//
// All functions are context-aware and accept a *gorm.DB handle, so they work
// inside transactions as well. They follow the "thin repository" approach:
// no business logic, only persistence and query composition. Raw gorm errors
// are propagated; wrapping into service errors happens one layer up.
//
// Functions:
//
//   - AddSubscription(ctx, db, userID, channelID) -> (created bool, error)
//     Inserts the pair with ON CONFLICT DO NOTHING.
//
//   - RemoveSubscription(ctx, db, userID, channelID) -> (removed bool, error)
//     Hard-deletes the pair; false when it did not exist.
//
//   - ListChannels(ctx, db, userID) -> []string, error
//     Channel ids for a user in insertion order.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-channel-digest/internal/domain"
)

// AddSubscription inserts (userID, channelID). Adding an existing pair is not
// an error; created reports whether a new row was written.
func AddSubscription(ctx context.Context, db *gorm.DB, userID, channelID string) (bool, error) {
	sub := &domain.Subscription{UserID: userID, ChannelID: channelID}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "channel_id"}},
			DoNothing: true,
		}).
		Create(sub)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RemoveSubscription deletes (userID, channelID) and reports whether a row
// actually existed.
func RemoveSubscription(ctx context.Context, db *gorm.DB, userID, channelID string) (bool, error) {
	res := db.WithContext(ctx).
		Where("user_id = ? AND channel_id = ?", userID, channelID).
		Delete(&domain.Subscription{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListChannels returns the channel ids monitored by userID, oldest first.
// The result is an empty (non-nil) slice when the user has none.
func ListChannels(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	out := []string{}
	err := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("user_id = ?", userID).
		Order("id asc").
		Pluck("channel_id", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
