package models

import "time"

type Invitation struct {
	ID            string           `json:"id" bson:"id" gorm:"primaryKey;type:varchar(36)"`
	InviterID     string           `json:"inviter_id" bson:"inviter_id" gorm:"index;type:varchar(36)"`
	InviterEmail  string           `json:"inviter_email" bson:"inviter_email"`
	InviteeEmail  string           `json:"invitee_email" bson:"invitee_email" gorm:"index"`
	InviteeName   string           `json:"invitee_name,omitempty" bson:"invitee_name,omitempty"`
	Status        InvitationStatus `json:"status" bson:"status" gorm:"type:varchar(20);default:'pending';index"`
	CustomMessage string           `json:"custom_message,omitempty" bson:"custom_message,omitempty"`
	CreatedAt     time.Time        `json:"created_at" bson:"created_at"`
	AcceptedAt    *time.Time       `json:"accepted_at,omitempty" bson:"accepted_at,omitempty"`
}

func (Invitation) TableName() string { return TableInvitations }

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
	InvitationStatusExpired  InvitationStatus = "expired"
)

// InvitationDto adds the shareable link to an invitation.
type InvitationDto struct {
	Invitation
	ShareURL string `json:"share_url,omitempty"`
}
