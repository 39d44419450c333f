package models

import "time"

// Tag registers a physical RFID tag against the equipment it normally
// travels with. Explicit bindings override this association.
type Tag struct {
	UID         string    `gorm:"column:uid_hex;primaryKey;size:64" json:"uid_hex"`
	EquipmentID int64     `gorm:"column:id_equipamento;not null" json:"id_equipamento"`
	TagCode     *string   `gorm:"column:tag_code;size:64;uniqueIndex" json:"tag_code,omitempty"`
	Notes       *string   `gorm:"column:observacao;type:text" json:"observacao,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Tag) TableName() string { return "rfid_tag" }
