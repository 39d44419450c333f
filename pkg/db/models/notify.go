package models

import "time"

// NotifyCheckpoint holds the last location/status the customer was notified
// about for an order. A table instead of a local state file so multiple
// worker instances can share it.
type NotifyCheckpoint struct {
	OrderID      int64     `gorm:"column:id_os;primaryKey" json:"id_os"`
	LastLocation *string   `gorm:"column:ultimo_local;size:50" json:"ultimo_local,omitempty"`
	LastStatus   *string   `gorm:"column:ultimo_status;size:120" json:"ultimo_status,omitempty"`
	UpdatedAt    time.Time `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

func (NotifyCheckpoint) TableName() string { return "whats_checkpoint" }

// SendLog records every outbound message attempt for traceability.
type SendLog struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID     int64     `gorm:"column:id_os;index;not null" json:"id_os"`
	LocationID  string    `gorm:"column:id_local;size:50;index;not null" json:"id_local"`
	Destination string    `gorm:"column:destino;size:64;not null" json:"destino"`
	Message     string    `gorm:"column:mensagem;type:text;not null" json:"mensagem"`
	SentAt      time.Time `gorm:"column:data_envio;autoCreateTime" json:"data_envio"`
}

func (SendLog) TableName() string { return "whats_envios" }
