package models

import (
	"time"
)

// AuditLog represents a system audit entry
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Actor     string    `gorm:"size:100;not null" json:"actor"`
	Action    string    `gorm:"size:50;not null" json:"action"` // CREATE, CONFIRM, CANCEL, PAYMENT, SPLIT
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Sale, Unit, Payment, etc.
	EntityID  uint      `json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
