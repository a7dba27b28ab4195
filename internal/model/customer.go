package model

import "time"

// Customer represents a customer of the store
type Customer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"nome" gorm:"column:nome;type:varchar(255);not null"`
	Phone     string    `json:"telefone" gorm:"column:telefone;type:varchar(20);not null"`
	CreatedAt time.Time `json:"data_criacao" gorm:"column:data_criacao"`
}

// TableName keeps the table name of the original schema
func (Customer) TableName() string {
	return "clientes"
}
