package models

import "time"

// Order is the repair work order (OS) tracked through the location/status
// workflow. Location and workflow status are held by reference value: the
// scanner id string and the status_os row id.
type Order struct {
	ID                 int64      `gorm:"column:id_os;primaryKey;autoIncrement" json:"id_os"`
	CustomerID         int64      `gorm:"column:id_cliente;not null" json:"id_cliente"`
	EquipmentID        int64      `gorm:"column:id_equipamento;not null" json:"id_equipamento"`
	TechnicianID       *int64     `gorm:"column:id_tecnico" json:"id_tecnico,omitempty"`
	ProblemDescription string     `gorm:"column:descricao_problema;type:text" json:"descricao_problema"`
	ServiceDescription *string    `gorm:"column:descricao_servico;type:text" json:"descricao_servico,omitempty"`
	LocationID         string     `gorm:"column:id_local;size:50" json:"id_local"`
	StatusID           *int64     `gorm:"column:id_status_os" json:"id_status_os,omitempty"`
	Active             string     `gorm:"column:status;size:20;default:ativo" json:"status"`
	RepairStartedAt    *time.Time `gorm:"column:data_inicio_reparo" json:"data_inicio_reparo,omitempty"`
	RepairFinishedAt   *time.Time `gorm:"column:data_fim_reparo" json:"data_fim_reparo,omitempty"`
	ServiceMinutes     *int64     `gorm:"column:tempo_servico" json:"tempo_servico,omitempty"`
	// Version guards concurrent RFID/manual updates: writers must match the
	// version they read and bump it, or fail with a conflict.
	Version   int64     `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"column:data_criacao;autoCreateTime" json:"data_criacao"`
	UpdatedAt time.Time `gorm:"column:data_atualizacao;autoUpdateTime" json:"data_atualizacao"`
}

func (Order) TableName() string { return "ordenservico" }
