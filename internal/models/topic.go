package models

import (
	"time"
)

// Topic is a source content unit eligible for draft generation. Topics are
// owned by the external curriculum workflow; this system only reads them
// (and optionally imports new ones from RSS feeds).
type Topic struct {
	ID         string    `gorm:"primaryKey" firestore:"-" json:"id"`
	ExternalID string    `gorm:"index" firestore:"externalId,omitempty" json:"external_id,omitempty"` // Hash of source + URL for imported topics
	Title      string    `gorm:"not null" firestore:"title" json:"title"`
	Content    string    `gorm:"type:text;not null" firestore:"content" json:"content"`
	LessonID   string    `gorm:"index;not null" firestore:"lessonId" json:"lesson_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" firestore:"createdAt,serverTimestamp" json:"created_at"`
}

// Lesson is the external record a topic hangs off. Only the image reference
// is read here, for draft enrichment.
type Lesson struct {
	ID       string `gorm:"primaryKey" firestore:"-" json:"id"`
	Title    string `firestore:"title,omitempty" json:"title"`
	ImageURL string `firestore:"imageUrl,omitempty" json:"image_url"`
}
