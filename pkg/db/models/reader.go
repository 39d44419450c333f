package models

import "time"

// Reader is an authenticated device that submits tag scans on behalf of a
// location. Keys are stored hashed; readers are deactivated, never deleted.
type Reader struct {
	ID         int64     `gorm:"column:id_leitor;primaryKey;autoIncrement" json:"id_leitor"`
	Code       string    `gorm:"column:codigo;size:100;uniqueIndex;not null" json:"codigo"`
	Name       *string   `gorm:"column:nome;size:150" json:"nome,omitempty"`
	LocationID *int64    `gorm:"column:id_local" json:"id_local,omitempty"`
	ScannerID  *string   `gorm:"column:id_scanner;size:50" json:"id_scanner,omitempty"`
	APIKeyHash string    `gorm:"column:api_key_hash;size:255" json:"-"`
	Active     string    `gorm:"column:status;size:20;default:ativo" json:"status"`
	CreatedAt  time.Time `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
}

func (Reader) TableName() string { return "rfid_leitor" }
