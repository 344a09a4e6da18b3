package models

import "time"

// Connection is one directed edge. A connection between A and B is stored as
// the pair A→B and B→A, always written and removed together.
type Connection struct {
	ID              string           `json:"id" bson:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string           `json:"user_id" bson:"user_id" gorm:"uniqueIndex:idx_connection_edge;type:varchar(36)"`
	ConnectedUserID string           `json:"connected_user_id" bson:"connected_user_id" gorm:"uniqueIndex:idx_connection_edge;type:varchar(36)"`
	Status          ConnectionStatus `json:"status" bson:"status" gorm:"type:varchar(20);default:'pending'"`
	CreatedAt       time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" bson:"updated_at"`
}

func (Connection) TableName() string { return TableConnections }

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	ConnectionStatusBlocked  ConnectionStatus = "blocked"
)

func (s ConnectionStatus) Valid() bool {
	switch s {
	case ConnectionStatusPending, ConnectionStatusAccepted, ConnectionStatusBlocked:
		return true
	}
	return false
}

// ConnectionDto is a connection as seen by one of its two users.
type ConnectionDto struct {
	User      UserDto          `json:"user"`
	Status    ConnectionStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
}
