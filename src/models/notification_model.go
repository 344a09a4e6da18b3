package models

import "time"

type Notification struct {
	ID                   string           `json:"id" bson:"id" gorm:"primaryKey;type:varchar(36)"`
	RecipientID          string           `json:"recipient_id" bson:"recipient_id" gorm:"index;type:varchar(36)"`
	Type                 NotificationType `json:"type" bson:"type" gorm:"type:varchar(32)"`
	RelatedUserID        string           `json:"related_user_id,omitempty" bson:"related_user_id,omitempty"`
	RelatedAffirmationID string           `json:"related_affirmation_id,omitempty" bson:"related_affirmation_id,omitempty"`
	Read                 bool             `json:"read" bson:"read"`
	CreatedAt            time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at" bson:"updated_at"`
}

func (Notification) TableName() string { return TableNotifications }

type NotificationType string

const (
	NotificationTypeConnectionAccepted  NotificationType = "connection_accepted"
	NotificationTypeAffirmationReceived NotificationType = "affirmation_received"
	NotificationTypeInvitationReceived  NotificationType = "invitation_received"
)
