package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment представляет ежемесячный платеж по графику долга
type Installment struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DebtID      string          `gorm:"type:varchar(36);not null;index" json:"debt_id"`
	Seq         int             `gorm:"not null" json:"seq"`
	DueDate     time.Time       `gorm:"not null" json:"due_date"`                       // Планируемая дата платежа
	Amount      decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"amount"`      // Сумма платежа в единицах долга
	Paid        bool            `gorm:"not null;default:false" json:"paid"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"paid_amount"` // Фактически погашенная часть
	PaymentDate *time.Time      `json:"payment_date,omitempty"`                         // Дата полного погашения
}

// TableName возвращает имя таблицы для модели Installment
func (Installment) TableName() string {
	return "installments"
}

// Outstanding возвращает непогашенный остаток платежа, не меньше нуля
func (i Installment) Outstanding() decimal.Decimal {
	rest := i.Amount.Sub(i.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}
