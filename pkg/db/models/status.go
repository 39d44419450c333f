package models

// WorkflowStatus is one step of the order workflow ("Recebido",
// "Em Diagnóstico", "Finalizado", ...). Locations map onto it by exact
// description match.
type WorkflowStatus struct {
	ID          int64  `gorm:"column:id_status;primaryKey;autoIncrement" json:"id_status"`
	Description string `gorm:"column:descricao;size:120;not null" json:"descricao"`
}

func (WorkflowStatus) TableName() string { return "status_os" }
