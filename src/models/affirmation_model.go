package models

import "time"

// Affirmation is a note from one account to another. RecipientID stays nil
// while the recipient is only known by email.
type Affirmation struct {
	ID             string            `json:"id" bson:"id" gorm:"primaryKey;type:varchar(36)"`
	SenderID       string            `json:"sender_id" bson:"sender_id" gorm:"index;type:varchar(36)"`
	RecipientID    *string           `json:"recipient_id" bson:"recipient_id" gorm:"index;type:varchar(36)"`
	RecipientEmail string            `json:"recipient_email,omitempty" bson:"recipient_email,omitempty" gorm:"index"`
	Message        string            `json:"message" bson:"message" gorm:"type:text"`
	Category       Category          `json:"category" bson:"category" gorm:"type:varchar(20)"`
	Status         AffirmationStatus `json:"status" bson:"status" gorm:"type:varchar(20);default:'pending'"`
	IsFavorite     bool              `json:"is_favorite" bson:"is_favorite"`
	CreatedAt      time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" bson:"updated_at"`
}

func (Affirmation) TableName() string { return TableAffirmations }

type AffirmationStatus string

const (
	AffirmationStatusPending   AffirmationStatus = "pending"
	AffirmationStatusDelivered AffirmationStatus = "delivered"
	AffirmationStatusRead      AffirmationStatus = "read"
)

type Category string

const (
	CategoryLove          Category = "love"
	CategoryEncouragement Category = "encouragement"
	CategoryGratitude     Category = "gratitude"
	CategorySupport       Category = "support"
	CategoryCelebration   Category = "celebration"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryLove,
	CategoryEncouragement,
	CategoryGratitude,
	CategorySupport,
	CategoryCelebration,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
