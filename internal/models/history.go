package models

import (
	"time"
)

// HistoryEntry records one topic selection. Entries are append-only: they
// are never updated or deleted, and their usedAt ordering (descending)
// defines recency for the selection lookback window.
type HistoryEntry struct {
	ID         string    `gorm:"primaryKey" firestore:"-" json:"id"`
	TopicID    string    `gorm:"index;not null" firestore:"topicId" json:"topic_id"`
	DraftID    string    `firestore:"draftId,omitempty" json:"draft_id,omitempty"`
	TopicTitle string    `firestore:"topicTitle,omitempty" json:"topic_title,omitempty"` // Denormalized for inspection
	LessonID   string    `firestore:"lessonId,omitempty" json:"lesson_id,omitempty"`
	UsedAt     time.Time `gorm:"autoCreateTime;index" firestore:"usedAt,serverTimestamp" json:"used_at"`
}
