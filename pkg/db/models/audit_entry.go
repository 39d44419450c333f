package models

import "time"

// AuditEntry is an append-only record of a field transition. Rows are never
// mutated or deleted; they are the only historical truth for order changes.
type AuditEntry struct {
	ID         int64     `gorm:"column:id_log;primaryKey;autoIncrement" json:"id_log"`
	EntityType string    `gorm:"column:entity_type;size:40;index:idx_audit_entity;not null" json:"entity_type"`
	EntityID   int64     `gorm:"column:entity_id;index:idx_audit_entity;not null" json:"entity_id"`
	Action     string    `gorm:"column:action;size:40;not null" json:"action"`
	Field      *string   `gorm:"column:field;size:60" json:"field,omitempty"`
	OldValue   *string   `gorm:"column:old_value;type:text" json:"old_value,omitempty"`
	NewValue   *string   `gorm:"column:new_value;type:text" json:"new_value,omitempty"`
	Note       *string   `gorm:"column:note;type:text" json:"note,omitempty"`
	UserID     *int64    `gorm:"column:user_id" json:"user_id,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AuditEntry) TableName() string { return "audit_log" }
