package models

import "time"

const (
	BindingTypeBind = "bind"
	BindingTypeMove = "move"
)

// TagBinding is one row of the tag tracking log. A `bind` row with a null
// UnboundAt is the current association of a UID; `move` rows record events.
// At most one open bind exists per UID at a time.
type TagBinding struct {
	ID         int64      `gorm:"column:id_log;primaryKey;autoIncrement" json:"id_log"`
	UID        string     `gorm:"column:uid;size:64;index;not null" json:"uid"`
	OrderID    int64      `gorm:"column:id_os;index;not null" json:"id_os"`
	LocationID *string    `gorm:"column:id_local;size:50" json:"id_local,omitempty"`
	Type       string     `gorm:"column:tipo;size:10;index;default:bind" json:"tipo"`
	EventAt    *time.Time `gorm:"column:evento_em" json:"evento_em,omitempty"`
	BoundAt    *time.Time `gorm:"column:vinculado_em;index" json:"vinculado_em,omitempty"`
	UnboundAt  *time.Time `gorm:"column:desvinculado_em;index" json:"desvinculado_em,omitempty"`
}

func (TagBinding) TableName() string { return "rastreamentorfid" }
