package models

// Location is a physical place instrumented with a scanner. ScannerID is the
// canonical reference value stored on orders and readers; at most one active
// row per scanner id is considered canonical.
type Location struct {
	ID                 int64   `gorm:"column:id_local;primaryKey;autoIncrement" json:"id_local"`
	ScannerID          string  `gorm:"column:id_scanner;size:50;uniqueIndex;not null" json:"id_scanner"`
	Label              string  `gorm:"column:local_instalado;size:150;not null" json:"local_instalado"`
	InternalStatus     *string `gorm:"column:status_interno;size:120" json:"status_interno,omitempty"`
	Active             string  `gorm:"column:status;size:20;default:ativo" json:"status"`
	DeactivationReason *string `gorm:"column:motivo_inativacao;type:text" json:"motivo_inativacao,omitempty"`
}

func (Location) TableName() string { return "local" }
