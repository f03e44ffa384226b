package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtType представляет единицу учета долга
type DebtType string

const (
	DebtTypeCash DebtType = "CASH" // долг в валюте
	DebtTypeGold DebtType = "GOLD" // долг в граммах золота
)

// Debt представляет долг клиента с графиком рассрочки
type Debt struct {
	ID                      string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CustomerID              string           `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	Position                int              `gorm:"not null;default:0" json:"-"`
	Label                   string           `gorm:"size:100" json:"label"`
	AmountInEGP             decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"amount_in_egp"`
	Type                    DebtType         `gorm:"type:varchar(10);not null;default:'CASH'" json:"type"`
	GoldPriceAtRegistration *decimal.Decimal `gorm:"type:decimal(20,2)" json:"gold_price_at_registration,omitempty"`
	GoldGrams               *decimal.Decimal `gorm:"type:decimal(20,3)" json:"gold_grams,omitempty"`
	MonthsCount             int              `gorm:"not null" json:"months_count"`
	StartDate               time.Time        `gorm:"not null" json:"start_date"`
	Installments            []Installment    `gorm:"foreignKey:DebtID" json:"installments"`
	History                 []PaymentRecord  `gorm:"foreignKey:DebtID" json:"history"`
	Images                  []DebtImage      `gorm:"-" json:"images"`
	CreatedAt               time.Time        `json:"created_at"`
	UpdatedAt               time.Time        `json:"updated_at"`
}

// TableName возвращает имя таблицы для модели Debt
func (Debt) TableName() string {
	return "debts"
}

// IsGold сообщает, ведется ли долг в граммах
func (d Debt) IsGold() bool {
	return d.Type == DebtTypeGold
}

// Clone возвращает независимую копию долга: срезы и указатели не разделяются с оригиналом
func (d Debt) Clone() Debt {
	out := d
	out.GoldPriceAtRegistration = cloneDecimal(d.GoldPriceAtRegistration)
	out.GoldGrams = cloneDecimal(d.GoldGrams)

	if d.Installments != nil {
		out.Installments = make([]Installment, len(d.Installments))
		for i, inst := range d.Installments {
			inst.PaymentDate = cloneTime(inst.PaymentDate)
			out.Installments[i] = inst
		}
	}
	if d.History != nil {
		out.History = make([]PaymentRecord, len(d.History))
		copy(out.History, d.History)
	}
	if d.Images != nil {
		out.Images = make([]DebtImage, len(d.Images))
		copy(out.Images, d.Images)
	}
	return out
}

func cloneDecimal(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
