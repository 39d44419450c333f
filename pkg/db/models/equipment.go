package models

import "time"

// Equipment is a customer device; RFID tags point at it when no explicit
// bind record overrides the association.
type Equipment struct {
	ID                 int64     `gorm:"column:id_equipamento;primaryKey;autoIncrement" json:"id_equipamento"`
	CustomerID         int64     `gorm:"column:id_cliente;not null" json:"id_cliente"`
	Kind               string    `gorm:"column:tipo;size:80" json:"tipo"`
	Brand              *string   `gorm:"column:marca;size:80" json:"marca,omitempty"`
	Model              *string   `gorm:"column:modelo;size:120" json:"modelo,omitempty"`
	SerialNumber       *string   `gorm:"column:numero_serie;size:120" json:"numero_serie,omitempty"`
	Notes              *string   `gorm:"column:observacao;type:text" json:"observacao,omitempty"`
	Active             string    `gorm:"column:status;size:20;default:ativo" json:"status"`
	DeactivationReason *string   `gorm:"column:motivo_inativacao;type:text" json:"motivo_inativacao,omitempty"`
	CreatedAt          time.Time `gorm:"column:data_cadastro;autoCreateTime" json:"data_cadastro"`
}

func (Equipment) TableName() string { return "equipamento" }
