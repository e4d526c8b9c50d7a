package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySessionID filters interactions by their parent session
type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// ByStatus filters sessions by lifecycle status
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// OrderByAsked orders interactions by their 1-based order within the session
type OrderByAsked struct{}

func (s OrderByAsked) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(`"order" ASC`)
}
