package models

import "time"

// Table names shared by every backend adapter.
const (
	TableUsers         = "users"
	TableInvitations   = "invitations"
	TableConnections   = "connections"
	TableAffirmations  = "affirmations"
	TablePeople        = "people"
	TableNotifications = "notifications"
)

type User struct {
	ID        string    `json:"id" bson:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email" gorm:"uniqueIndex"`
	Password  string    `json:"password,omitempty" bson:"password"`
	AvatarURL string    `json:"avatar_url" bson:"avatar_url"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (User) TableName() string { return TableUsers }

// ToDto strips the password hash for API responses.
func (u User) ToDto() UserDto {
	return UserDto{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}

type UserDto struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}
