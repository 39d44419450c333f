package models

import "time"

// LastSeenUID caches the most recent scan per reader so the UI can
// auto-fill UIDs. Advisory only: last-write-wins upsert, no strong
// consistency requirement.
type LastSeenUID struct {
	ID         int64     `gorm:"column:id_last;primaryKey;autoIncrement" json:"id_last"`
	ReaderCode string    `gorm:"column:leitor_codigo;size:100;uniqueIndex;not null" json:"leitor_codigo"`
	UID        string    `gorm:"column:uid;size:64;not null" json:"uid"`
	SeenAt     time.Time `gorm:"column:lido_em;not null" json:"lido_em"`
}

func (LastSeenUID) TableName() string { return "rfid_last_uid" }
