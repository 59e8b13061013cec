package model

import (
	"strings"
	"time"
)

// User is the Telegram account that owns a reminder collection. Chat ids
// of private chats equal TelegramID, so notifications go there.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Reminders  []Reminder `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// DisplayName picks the friendliest non-empty name.
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.Username); name != "" {
		return "@" + name
	}
	return "there"
}
