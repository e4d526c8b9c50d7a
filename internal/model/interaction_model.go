package model

import (
	"time"

	"github.com/google/uuid"
)

type Interaction struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_interactions_session_order,priority:1"`
	Question  string    `gorm:"type:text;not null"`
	Answer    string    `gorm:"type:text;not null"`
	// quoted, "order" is a reserved word in SQL
	Order     int       `gorm:"column:order;not null;uniqueIndex:idx_interactions_session_order,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Interaction) TableName() string {
	return "interactions"
}
