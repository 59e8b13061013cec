package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Priority ranks a reminder. The zero value means unranked.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities for sorting: high(0) < medium(1) < low(2) < unset(3).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// ParsePriority accepts the canonical names case-insensitively.
func ParsePriority(raw string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(raw))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	default:
		return PriorityNone, false
	}
}

// Source records how a reminder entered the system.
type Source string

const (
	SourceText     Source = "text"
	SourceVoice    Source = "voice"
	SourceEmail    Source = "email"
	SourceMessage  Source = "message"
	SourceLocation Source = "location"
)

// ParseSource accepts the canonical names case-insensitively.
func ParseSource(raw string) (Source, bool) {
	switch s := Source(strings.ToLower(strings.TrimSpace(raw))); s {
	case SourceText, SourceVoice, SourceEmail, SourceMessage, SourceLocation:
		return s, true
	default:
		return "", false
	}
}

// Reminder is a single stored reminder. Completed reminders stay in the
// collection until they are deleted explicitly.
type Reminder struct {
	ID          string `gorm:"primaryKey;size:36"`
	UserID      uint   `gorm:"index"`
	Title       string
	Description string
	Completed   bool       `gorm:"default:false"`
	DueDate     *time.Time `gorm:"index"`
	Priority    Priority   `gorm:"size:16"`
	Source      Source     `gorm:"size:16"`
	ContextType string     `gorm:"size:64;index"`
	NotifiedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BeforeCreate assigns an id when the caller did not provide one.
func (r *Reminder) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave stores due dates in UTC so they compare consistently in SQLite.
func (r *Reminder) BeforeSave(_ *gorm.DB) error {
	if r.DueDate != nil {
		due := r.DueDate.UTC()
		r.DueDate = &due
	}
	return nil
}

// ShortID is the prefix shown to users in chat.
func (r *Reminder) ShortID() string {
	if len(r.ID) <= 8 {
		return r.ID
	}
	return r.ID[:8]
}

// HasDueDate reports whether the reminder is scheduled.
func (r *Reminder) HasDueDate() bool {
	return r.DueDate != nil
}
