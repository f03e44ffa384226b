package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Customer представляет клиента и все его долги
type Customer struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name       string    `gorm:"size:100;not null;index" json:"name"`
	Phone      string    `gorm:"size:20;not null" json:"phone"`
	IsArchived bool      `gorm:"not null;default:false" json:"is_archived"`
	Debts      []Debt    `gorm:"foreignKey:CustomerID" json:"debts"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName возвращает имя таблицы для модели Customer
func (Customer) TableName() string {
	return "customers"
}

// BeforeSave хук для валидации перед сохранением
func (c *Customer) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("customer name is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return errors.New("customer phone is required")
	}
	return nil
}

// FindDebt возвращает индекс долга клиента или -1
func (c *Customer) FindDebt(debtID string) int {
	for i := range c.Debts {
		if c.Debts[i].ID == debtID {
			return i
		}
	}
	return -1
}
