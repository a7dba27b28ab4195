package model

import "time"

// Sale is a completed multi-item sale. A sale is created whole inside one
// transaction and has no intermediate states; its items are removed by
// cascade when the sale row is deleted.
type Sale struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	CustomerID uint       `json:"cliente_id" gorm:"column:cliente_id;not null;index"`
	UserID     uint       `json:"usuario_id" gorm:"column:usuario_id;not null;index"`
	Total      float64    `json:"total" gorm:"column:total;not null"`
	CreatedAt  time.Time  `json:"data_venda" gorm:"column:data_venda;index"`
	Items      []SaleItem `json:"itens,omitempty" gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the table name of the original schema
func (Sale) TableName() string {
	return "vendas"
}

// SaleItem is one product/quantity line of a sale. UnitPrice is the product
// price at the time of the sale; later price changes never alter it.
type SaleItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	SaleID    uint    `json:"venda_id" gorm:"column:venda_id;not null;index"`
	ProductID uint    `json:"produto_id" gorm:"column:produto_id;not null;index"`
	Quantity  int     `json:"quantidade" gorm:"column:quantidade;not null"`
	UnitPrice float64 `json:"preco_unitario" gorm:"column:preco_unitario;not null"`
	Subtotal  float64 `json:"subtotal" gorm:"column:subtotal;not null"`
}

// TableName keeps the table name of the original schema
func (SaleItem) TableName() string {
	return "itens_venda"
}
