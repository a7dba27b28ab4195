package model

import "time"

// Product represents an item of the store's inventory.
// Stock must never go below zero; all stock movements go through guarded
// updates in the product and sale services.
type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"nome" gorm:"column:nome;type:varchar(255);not null"`
	Description string    `json:"descricao" gorm:"column:descricao;type:text"`
	Price       float64   `json:"preco" gorm:"column:preco;not null"`
	Stock       int       `json:"estoque" gorm:"column:estoque;not null;default:0"`
	CreatedAt   time.Time `json:"data_criacao" gorm:"column:data_criacao"`
}

// TableName keeps the table name of the original schema
func (Product) TableName() string {
	return "produtos"
}
