package model

import "time"

// User represents a Google-authenticated account stored in the database.
// Rows are created on first successful sign-in and re-linked on later logins.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	GoogleID  string    `json:"google_id" gorm:"column:google_id;type:varchar(255);uniqueIndex"`
	Name      string    `json:"nome" gorm:"column:nome;type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	CreatedAt time.Time `json:"data_criacao" gorm:"column:data_criacao"`
}

// TableName keeps the table name of the original schema
func (User) TableName() string {
	return "usuarios"
}
