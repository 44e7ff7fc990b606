package models

import (
	"time"
)

// DraftStatus represents the current state of a draft
type DraftStatus string

const (
	DraftStatusPending   DraftStatus = "pending"
	DraftStatusPublished DraftStatus = "published"
	DraftStatusRejected  DraftStatus = "rejected"
)

// Draft is a generated article awaiting external review. Exactly one draft
// is written per successful generation run; published/rejected transitions
// are owned by the external review workflow.
type Draft struct {
	ID        string      `gorm:"primaryKey" firestore:"-" json:"id"`
	Title     string      `gorm:"not null" firestore:"title" json:"title"`
	Content   string      `gorm:"type:text;not null" firestore:"content" json:"content"`
	TopicID   string      `gorm:"index;not null" firestore:"topicId" json:"topic_id"`
	LessonID  string      `gorm:"index" firestore:"lessonId,omitempty" json:"lesson_id"`
	ImageURL  string      `firestore:"imageUrl,omitempty" json:"image_url,omitempty"`
	Status    DraftStatus `gorm:"default:'pending'" firestore:"status" json:"status"`
	CreatedAt time.Time   `gorm:"autoCreateTime" firestore:"createdAt,serverTimestamp" json:"created_at"`
}
