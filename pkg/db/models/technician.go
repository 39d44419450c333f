package models

import "time"

type Technician struct {
	ID                 int64     `gorm:"column:id_tecnico;primaryKey;autoIncrement" json:"id_tecnico"`
	Name               string    `gorm:"column:nome;size:150;not null" json:"nome"`
	Document           *string   `gorm:"column:cpf;size:20" json:"cpf,omitempty"`
	Phone              *string   `gorm:"column:telefone;size:30" json:"telefone,omitempty"`
	Specialty          *string   `gorm:"column:especialidade;size:120" json:"especialidade,omitempty"`
	Active             string    `gorm:"column:status;size:20;default:ativo" json:"status"`
	DeactivationReason *string   `gorm:"column:motivo_inativacao;type:text" json:"motivo_inativacao,omitempty"`
	CreatedAt          time.Time `gorm:"column:data_cadastro;autoCreateTime" json:"data_cadastro"`
}

func (Technician) TableName() string { return "tecnico" }
