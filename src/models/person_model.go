package models

import "time"

// Person is a contact tracked by its owner, possibly before the contact has an account.
type Person struct {
	ID           string    `json:"id" bson:"id" gorm:"primaryKey;type:varchar(36)"`
	OwnerID      string    `json:"owner_id" bson:"owner_id" gorm:"index;type:varchar(36)"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email,omitempty" bson:"email,omitempty" gorm:"index"`
	PhotoURL     string    `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	LinkedUserID *string   `json:"linked_user_id" bson:"linked_user_id" gorm:"type:varchar(36)"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func (Person) TableName() string { return TablePeople }
