package models

import (
	"time"
)

// PublishedArticle is a reviewed article on the public feed. Rows are owned
// by the external publishing workflow; this system only reads the list and
// the order index.
type PublishedArticle struct {
	ID          string    `gorm:"primaryKey" firestore:"-" json:"id"`
	Title       string    `firestore:"title,omitempty" json:"title"`
	Content     string    `gorm:"type:text" firestore:"content,omitempty" json:"content"`
	ImageURL    string    `firestore:"imageUrl,omitempty" json:"image_url,omitempty"`
	OrderIndex  int       `gorm:"index;not null" firestore:"orderIndex" json:"order_index"`
	PublishedAt time.Time `firestore:"publishedAt,omitempty" json:"published_at"`
}

// FeedConfigID is the fixed document id of the singleton feed config.
const FeedConfigID = "feed"

// FeedConfig is the single mutable record of the rotation subsystem: the
// pointer to the currently live article. It may not exist until the first
// rotation and is upserted on every change.
type FeedConfig struct {
	ID               string    `gorm:"primaryKey" firestore:"-" json:"id"`
	CurrentArticleID string    `firestore:"currentArticleId,omitempty" json:"current_article_id"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" firestore:"updatedAt,serverTimestamp" json:"updated_at"`
}
