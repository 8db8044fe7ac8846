package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"size:255"`
	FullName     string `gorm:"size:255"`
	IsActive     bool   `gorm:"default:true"`
	IsAdmin      bool   `gorm:"default:false"`

	Messages    []Message    `gorm:"foreignKey:SenderID"`
	Memberships []Membership `gorm:"foreignKey:UserID"`
}

type Conversation struct {
	gorm.Model
	Title   string `gorm:"size:255"`
	IsGroup bool   `gorm:"default:false"`

	Messages []Message    `gorm:"foreignKey:ConversationID"`
	Members  []Membership `gorm:"foreignKey:ConversationID"`
}

// Membership links a user to a conversation. A user joins a conversation at
// most once.
type Membership struct {
	gorm.Model
	UserID         uint `gorm:"index;uniqueIndex:idx_user_conversation"`
	ConversationID uint `gorm:"index;uniqueIndex:idx_user_conversation"`
	IsAdmin        bool `gorm:"default:false"`

	User         User
	Conversation Conversation
}

// Message is a persisted chat message. The realtime relay itself never writes
// rows here; delivery over the websocket is best-effort and unpersisted.
type Message struct {
	gorm.Model
	ConversationID uint `gorm:"index"`
	SenderID       uint `gorm:"index"`
	Content        string
	SentAt         time.Time `gorm:"index"`

	Conversation Conversation
	Sender       User
}
