package domain

import "time"

// Subscription records that a user monitors a channel. The (UserID,
// ChannelID) pair is unique; rows are either present or absent, with no
// soft delete.
//
// Fields:
//   - ID: auto-increment key, doubles as insertion order for listing.
//   - UserID: opaque identifier of the subscriber (e.g. a Telegram user id).
//   - ChannelID: canonical channel identifier, see NormalizeChannel.
//   - CreatedAt: set by GORM on insert.
type Subscription struct {
	ID        uint      `json:"-"          gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_subscription_user_channel,priority:1"`
	ChannelID string    `json:"channel"    gorm:"type:varchar(160);not null;uniqueIndex:ux_subscription_user_channel,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Subscription.
func (Subscription) TableName() string { return "subscriptions" }
