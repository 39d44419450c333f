package models

import "time"

// Customer owns equipment and receives movement notifications. Celular is
// preferred over Telefone when picking a notification destination.
type Customer struct {
	ID                 int64     `gorm:"column:id_cliente;primaryKey;autoIncrement" json:"id_cliente"`
	Name               string    `gorm:"column:nome;size:150;not null" json:"nome"`
	Document           *string   `gorm:"column:cpf;size:20" json:"cpf,omitempty"`
	Phone              *string   `gorm:"column:telefone;size:30" json:"telefone,omitempty"`
	Mobile             *string   `gorm:"column:celular;size:30" json:"celular,omitempty"`
	Email              *string   `gorm:"column:email;size:150" json:"email,omitempty"`
	Active             string    `gorm:"column:status;size:20;default:ativo" json:"status"`
	DeactivationReason *string   `gorm:"column:motivo_inativacao;type:text" json:"motivo_inativacao,omitempty"`
	CreatedAt          time.Time `gorm:"column:data_cadastro;autoCreateTime" json:"data_cadastro"`
}

func (Customer) TableName() string { return "cliente" }
