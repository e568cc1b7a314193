// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides a small aggregate query used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-channel-digest/internal/domain"
)

// SubscriptionStats returns the number of channels userID monitors and the
// latest CreatedAt among them. Because subscriptions are never updated in
// place, (count, latest) changes whenever the list changes, except for an
// add immediately followed by a remove of an older row; callers include the
// largest id for that case.
//
// When the user has no subscriptions, count is 0 and latest is nil.
func SubscriptionStats(ctx context.Context, db *gorm.DB, userID string) (count int64, latest *time.Time, maxID uint, err error) {
	q := db.WithContext(ctx).Model(&domain.Subscription{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, 0, err
	}
	if count == 0 {
		return 0, nil, 0, nil
	}

	// Latest row (avoid MAX() -> TEXT in SQLite)
	var row struct {
		ID        uint
		CreatedAt time.Time
	}
	if err = q.Select("id, created_at").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, 0, err
	}
	return count, &row.CreatedAt, row.ID, nil
}
